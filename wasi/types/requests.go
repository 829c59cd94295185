// Package types holds the messages exchanged between the host runtime and a
// guest component for HTTP requests.
package types

import "net/url"

type RequestParams struct {
	Method   string
	Path     string
	RawQuery string
	Body     string
}

type Response struct {
	Body    string
	Status  int
	Headers map[string]string
}

func (params RequestParams) Query() url.Values {
	v, _ := url.ParseQuery(params.RawQuery)
	return v
}
