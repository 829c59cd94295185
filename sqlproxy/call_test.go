package sqlproxy

import (
	"encoding/json"
	"math"
	"testing"
)

func TestTextInvalidUTF8(t *testing.T) {
	for _, s := range []string{"", "plain", "héllo", "a\xffb", "\xc3"} {
		tv, err := TagText("text", s)
		if err != nil {
			t.Fatalf("TagText(%q) returned error: %v", s, err)
		}
		data, err := json.Marshal(tv)
		if err != nil {
			t.Fatalf("Marshal(%q) returned error: %v", s, err)
		}
		var decoded TaggedValue
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", data, err)
		}
		got, err := UntagText(decoded)
		if err != nil {
			t.Fatalf("UntagText(%s) returned error: %v", data, err)
		}
		if got != s {
			t.Errorf("Text round trip: got %q, want %q", got, s)
		}
	}

	tv, _ := TagText("text", "plain")
	if tv.Encoding != "" {
		t.Errorf("Valid text should use the plain encoding, got %q", tv.Encoding)
	}
}

func TestFloatNonFinite(t *testing.T) {
	for _, f := range []float64{0, -1.5, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(1), math.Inf(-1)} {
		tv, err := TagFloat("real", f)
		if err != nil {
			t.Fatalf("TagFloat(%v) returned error: %v", f, err)
		}
		data, err := json.Marshal(tv)
		if err != nil {
			t.Fatalf("Marshal(%v) returned error: %v", f, err)
		}
		var decoded TaggedValue
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", data, err)
		}
		got, err := UntagFloat(decoded)
		if err != nil {
			t.Fatalf("UntagFloat(%s) returned error: %v", data, err)
		}
		if got != f {
			t.Errorf("Float round trip: got %v, want %v", got, f)
		}
	}

	tv, err := TagFloat("real", math.NaN())
	if err != nil {
		t.Fatalf("TagFloat(NaN) returned error: %v", err)
	}
	got, err := UntagFloat(tv)
	if err != nil || !math.IsNaN(got) {
		t.Errorf("NaN round trip: got %v, %v", got, err)
	}
}

func TestUnknownEncoding(t *testing.T) {
	tv := TaggedValue{Type: "text", Value: json.RawMessage(`"x"`), Encoding: "rot13"}
	if _, err := UntagText(tv); err == nil {
		t.Errorf("UntagText should reject an unknown encoding")
	}
	if _, err := UntagFloat(tv); err == nil {
		t.Errorf("UntagFloat should reject an unknown encoding")
	}
}
