package stream

import "testing"

func TestStreamSinglePass(t *testing.T) {
	buf := []int{1, 2, 3}
	s := New(buf)

	if s.Remaining() != 3 {
		t.Fatalf("Expected 3 remaining, got %d", s.Remaining())
	}

	var got []int
	for v := range s.All() {
		got = append(got, v)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Unexpected elements: %v", got)
	}

	for range s.All() {
		t.Fatal("Second iteration should yield nothing")
	}
	if s.Next() {
		t.Error("Next after exhaustion should be false")
	}
	if buf[0] != 0 {
		t.Error("Produced elements should be released from the buffer")
	}
}

func TestStreamEarlyStop(t *testing.T) {
	s := New([]string{"a", "b", "c"})
	for v := range s.All() {
		if v == "a" {
			break
		}
	}
	if s.Remaining() != 2 {
		t.Fatalf("Expected 2 remaining after early stop, got %d", s.Remaining())
	}
	if !s.Next() || s.Current() != "b" {
		t.Fatalf("Expected to resume at b, got %q", s.Current())
	}
	s.Close()
	if s.Next() || s.Remaining() != 0 {
		t.Error("Closed stream should be empty")
	}
}

func TestStreamEmpty(t *testing.T) {
	s := New[int](nil)
	if s.Next() {
		t.Fatal("Empty stream produced an element")
	}
}
