package vector

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// #region types

// Bipolar is a vector whose components are restricted to {-1, +1}.
type Bipolar []int8

// #endregion types

// #region constructors

// Ones returns the all +1 vector of length n. It is the tie vector: what
// sign() produces from an all-zero net input.
func Ones(n int) Bipolar {
	v := make(Bipolar, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

// Sign maps a net input to a bipolar component. Sign(0) is +1.
func Sign(x float64) int8 {
	if x < 0 {
		return -1
	}
	return 1
}

// FromSigns thresholds every component of x at zero.
func FromSigns(x []float64) Bipolar {
	v := make(Bipolar, len(x))
	for i, f := range x {
		v[i] = Sign(f)
	}
	return v
}

// Concat joins vectors end to end into a new vector.
func Concat(parts ...Bipolar) Bipolar {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make(Bipolar, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// #endregion constructors

// #region methods

// Clone returns an independent copy of v.
func (v Bipolar) Clone() Bipolar {
	if v == nil {
		return nil
	}
	out := make(Bipolar, len(v))
	copy(out, v)
	return out
}

// Equal reports whether v and o have the same length and components.
func (v Bipolar) Equal(o Bipolar) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

// Sum returns the sum of the components. Zero means the vector is balanced.
func (v Bipolar) Sum() int {
	s := 0
	for _, x := range v {
		s += int(x)
	}
	return s
}

// Floats converts v to float64 components.
func (v Bipolar) Floats() []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Validate checks that every component is -1 or +1.
func (v Bipolar) Validate() error {
	if len(v) == 0 {
		return fmt.Errorf("empty vector")
	}
	for i, x := range v {
		if x != 1 && x != -1 {
			return fmt.Errorf("component %d is %d, want -1 or +1", i, x)
		}
	}
	return nil
}

// String renders v compactly as a run of '+' and '-'.
func (v Bipolar) String() string {
	var b strings.Builder
	b.Grow(len(v))
	for _, x := range v {
		if x < 0 {
			b.WriteByte('-')
		} else {
			b.WriteByte('+')
		}
	}
	return b.String()
}

// Parse is the inverse of String.
func Parse(s string) (Bipolar, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("parse bipolar: empty string")
	}
	v := make(Bipolar, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+':
			v[i] = 1
		case '-':
			v[i] = -1
		default:
			return nil, fmt.Errorf("parse bipolar: invalid character %q at %d", s[i], i)
		}
	}
	return v, nil
}

// #endregion methods

// #region metrics

// Dot returns the inner product of a and b. Lengths must match.
func Dot(a, b Bipolar) int {
	if len(a) != len(b) {
		panic(fmt.Sprintf("vector: dot of lengths %d and %d", len(a), len(b)))
	}
	s := 0
	for i := range a {
		s += int(a[i]) * int(b[i])
	}
	return s
}

// Hamming returns the number of components where a and b differ.
// For bipolar vectors Hamming(a, b) == (len(a) - Dot(a, b)) / 2.
func Hamming(a, b Bipolar) int {
	if len(a) != len(b) {
		panic(fmt.Sprintf("vector: hamming of lengths %d and %d", len(a), len(b)))
	}
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

// #endregion metrics

// #region noise

// Perturb returns a copy of v with k distinct components flipped, chosen by rng.
// k is clamped to [0, len(v)].
func Perturb(v Bipolar, k int, rng *rand.Rand) Bipolar {
	out := v.Clone()
	if k <= 0 {
		return out
	}
	if k > len(v) {
		k = len(v)
	}
	for _, i := range rng.Perm(len(v))[:k] {
		out[i] = -out[i]
	}
	return out
}

// #endregion noise
