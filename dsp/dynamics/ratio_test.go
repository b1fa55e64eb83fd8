package dynamics

import (
	"math"
	"testing"
)

func TestRatioVariants(t *testing.T) {
	finite := NewRatio(4)
	if finite.Infinite() {
		t.Fatal("NewRatio(4) must not be infinite")
	}
	if finite.Value() != 4 {
		t.Fatalf("Value() = %v, want 4", finite.Value())
	}
	if finite.String() != "4:1" {
		t.Fatalf("String() = %q, want \"4:1\"", finite.String())
	}

	inf := InfiniteRatio()
	if !inf.Infinite() {
		t.Fatal("InfiniteRatio() must be infinite")
	}
	if !math.IsInf(inf.Value(), 1) {
		t.Fatalf("Value() = %v, want +Inf", inf.Value())
	}
	if inf.String() != "inf:1" {
		t.Fatalf("String() = %q, want \"inf:1\"", inf.String())
	}
}
