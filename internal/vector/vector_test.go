package vector

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// #region sign-tests

func TestSign_TieIsPositive(t *testing.T) {
	if Sign(0) != 1 {
		t.Fatalf("Sign(0) = %d, want +1", Sign(0))
	}
	if Sign(-0.0001) != -1 {
		t.Errorf("Sign(-0.0001) should be -1")
	}
	if Sign(3) != 1 {
		t.Errorf("Sign(3) should be +1")
	}
}

func TestFromSigns(t *testing.T) {
	got := FromSigns([]float64{-2, 0, 5, -0.5})
	want := Bipolar{-1, 1, 1, -1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromSigns mismatch (-want +got):\n%s", diff)
	}
}

// #endregion sign-tests

// #region metric-tests

func TestDotAndHamming(t *testing.T) {
	a := Bipolar{1, 1, -1, -1}
	b := Bipolar{1, -1, 1, -1}

	if d := Dot(a, b); d != 0 {
		t.Errorf("Dot = %d, want 0", d)
	}
	if h := Hamming(a, b); h != 2 {
		t.Errorf("Hamming = %d, want 2", h)
	}
	if h := Hamming(a, a); h != 0 {
		t.Errorf("Hamming(a, a) = %d", h)
	}
	// Hamming and Dot agree for bipolar vectors.
	if (len(a)-Dot(a, b))/2 != Hamming(a, b) {
		t.Error("dot/hamming identity broken")
	}
}

func TestDot_LengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on length mismatch")
		}
	}()
	Dot(Bipolar{1}, Bipolar{1, 1})
}

// #endregion metric-tests

// #region helper-tests

func TestConcatCopies(t *testing.T) {
	a := Bipolar{1, -1}
	b := Bipolar{-1}
	c := Concat(a, b)
	if diff := cmp.Diff(Bipolar{1, -1, -1}, c); diff != "" {
		t.Fatalf("Concat mismatch (-want +got):\n%s", diff)
	}
	c[0] = -1
	if a[0] != 1 {
		t.Error("Concat must not alias its inputs")
	}
}

func TestStringParseRoundTrip(t *testing.T) {
	v := Bipolar{1, -1, -1, 1, 1}
	s := v.String()
	if s != "+--++" {
		t.Fatalf("String = %q", s)
	}
	back, err := Parse(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !back.Equal(v) {
		t.Errorf("round trip lost data: %v", back)
	}
	if _, err := Parse("+x-"); err == nil {
		t.Error("expected error for invalid character")
	}
}

func TestValidate(t *testing.T) {
	if err := (Bipolar{1, -1}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Bipolar{1, 0}).Validate(); err == nil {
		t.Error("expected error for zero component")
	}
	if err := (Bipolar{}).Validate(); err == nil {
		t.Error("expected error for empty vector")
	}
}

func TestPerturb(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	v := Ones(32)
	p := Perturb(v, 5, rng)
	if h := Hamming(v, p); h != 5 {
		t.Fatalf("expected 5 flips, got %d", h)
	}
	if v.Sum() != 32 {
		t.Error("Perturb must not modify its input")
	}
	if h := Hamming(v, Perturb(v, 100, rng)); h != 32 {
		t.Errorf("k above length should flip everything, got %d", h)
	}
}

// #endregion helper-tests
