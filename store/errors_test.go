package store

import "testing"

func TestMissingKeySuggestsNearestKey(t *testing.T) {
	s := New()
	s.SetString("App", "name", "demo")
	s.SetInt64("App", "port", 8080)

	_, err := s.GetString("App", "nam")
	e, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Message == "" {
		t.Fatalf("expected a did-you-mean hint for %q against existing keys", "nam")
	}
}

func TestFloat64GetPromotesInt64(t *testing.T) {
	s := New()
	s.SetInt64("App", "ratio", 2)
	f, err := s.GetFloat64("App", "ratio")
	if err != nil {
		t.Fatalf("GetFloat64: %v", err)
	}
	if f != 2.0 {
		t.Fatalf("got %v", f)
	}
}
