package strpool

import "testing"

func TestGetPut(t *testing.T) {
	t.Parallel()

	b := Get()
	if b == nil {
		t.Fatal("builder cannot be nil")
	}
	b.WriteString("15")
	if b.String() != "15" {
		t.Errorf("expected %q got %q", "15", b.String())
	}
	b.Reset()
	Put(b)

	if got := Get(); got.Len() != 0 {
		t.Errorf("expected empty builder got %q", got.String())
	}
}
