// Package encoding assigns bipolar symbol vectors to state and relation
// labels.
//
// Vectors come from a Sylvester-Hadamard basis first, so the leading labels are
// exactly orthogonal, and from seeded balanced random draws after that, each
// accepted only if its overlap with every earlier vector stays under the
// configured bound. The all-ones Hadamard row is never used: every vector in a
// codebook is balanced, which keeps the all-ones tie vector equidistant from
// all symbols.
package encoding

import (
	"fmt"
	"math"
	"math/bits"
	"math/rand/v2"
	"strings"

	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #region codebook

// Codebook is an immutable label → bipolar vector table.
type Codebook struct {
	labels  []string
	index   map[string]int
	vectors []vector.Bipolar
	dim     int
	exact   int
	worst   float64
}

// Dimension returns the vector length.
func (c *Codebook) Dimension() int { return c.dim }

// Len returns the number of labels.
func (c *Codebook) Len() int { return len(c.labels) }

// Labels returns the labels in generation order.
func (c *Codebook) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Contains reports whether label is in the codebook.
func (c *Codebook) Contains(label string) bool {
	_, ok := c.index[label]
	return ok
}

// Index returns the generation position of label.
func (c *Codebook) Index(label string) (int, bool) {
	i, ok := c.index[label]
	return i, ok
}

// Vector returns a copy of the vector assigned to label.
func (c *Codebook) Vector(label string) (vector.Bipolar, bool) {
	i, ok := c.index[label]
	if !ok {
		return nil, false
	}
	return c.vectors[i].Clone(), true
}

// MustVector is Vector for labels known to exist.
func (c *Codebook) MustVector(label string) (vector.Bipolar, error) {
	v, ok := c.Vector(label)
	if !ok {
		return nil, &UnknownLabelError{Label: label}
	}
	return v, nil
}

// ExactCount returns how many vectors came from the Hadamard basis.
func (c *Codebook) ExactCount() int {
	if c.exact > len(c.labels) {
		return len(c.labels)
	}
	return c.exact
}

// WorstOverlap returns max |dot(u, v)| / D over all distinct pairs.
func (c *Codebook) WorstOverlap() float64 { return c.worst }

// Overlaps returns the pairwise dot(u, v) / D matrix in label order.
func (c *Codebook) Overlaps() [][]float64 {
	n := len(c.vectors)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = float64(vector.Dot(c.vectors[i], c.vectors[j])) / float64(c.dim)
		}
	}
	return out
}

// #endregion codebook

// #region generate

// Generate assigns one vector of length cfg.Dimension to each label, in order.
// Output is fully determined by labels, cfg.Dimension and cfg.Seed.
func Generate(labels []string, cfg Config) (*Codebook, error) {
	if err := validateLabels(labels); err != nil {
		return nil, err
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("generate: dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.MaxOverlap < 0 || cfg.MaxOverlap > 1 {
		return nil, fmt.Errorf("generate: max overlap %.4f outside [0, 1]", cfg.MaxOverlap)
	}

	d := cfg.Dimension
	order := d & -d // largest power of two dividing d
	exact := order - 1

	vectors := make([]vector.Bipolar, 0, len(labels))
	for i := 0; i < len(labels) && i < exact; i++ {
		vectors = append(vectors, hadamardRow(i+1, order, d))
	}

	if len(vectors) < len(labels) {
		if cfg.MaxAttempts <= 0 {
			return nil, &CapacityError{
				Labels: len(labels), Dimension: d, Exact: exact, Generated: len(vectors),
				Reason: "exact basis exhausted and random extension disabled",
			}
		}
		rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
		limit := int(math.Floor(cfg.MaxOverlap * float64(d)))
		for len(vectors) < len(labels) {
			v, ok := drawBalanced(rng, d, vectors, limit, cfg.MaxAttempts)
			if !ok {
				return nil, &CapacityError{
					Labels: len(labels), Dimension: d, Exact: exact, Generated: len(vectors),
					Reason: fmt.Sprintf("no vector with |dot| <= %d after %d attempts", limit, cfg.MaxAttempts),
				}
			}
			vectors = append(vectors, v)
		}
	}

	cb := &Codebook{
		labels:  append([]string(nil), labels...),
		index:   make(map[string]int, len(labels)),
		vectors: vectors,
		dim:     d,
		exact:   exact,
	}
	for i, l := range labels {
		cb.index[l] = i
	}
	cb.worst = worstOverlap(vectors, d)
	return cb, nil
}

// #endregion generate

// #region helpers

func validateLabels(labels []string) error {
	if len(labels) == 0 {
		return fmt.Errorf("%w: no labels", ErrInvalidLabels)
	}
	seen := make(map[string]bool, len(labels))
	for i, l := range labels {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("%w: label %d is blank", ErrInvalidLabels, i)
		}
		if seen[l] {
			return fmt.Errorf("%w: duplicate label %q", ErrInvalidLabels, l)
		}
		seen[l] = true
	}
	return nil
}

// hadamardRow returns row r of the Sylvester-Hadamard matrix of the given
// order with each entry repeated dim/order times.
func hadamardRow(r, order, dim int) vector.Bipolar {
	stretch := dim / order
	v := make(vector.Bipolar, dim)
	for j := range v {
		c := j / stretch
		if bits.OnesCount(uint(r&c))%2 == 0 {
			v[j] = 1
		} else {
			v[j] = -1
		}
	}
	return v
}

// drawBalanced samples shuffled half/half vectors until one stays within
// limit of every existing vector.
func drawBalanced(rng *rand.Rand, dim int, existing []vector.Bipolar, limit, attempts int) (vector.Bipolar, bool) {
	for a := 0; a < attempts; a++ {
		v := make(vector.Bipolar, dim)
		for i := range v {
			if i < dim/2 {
				v[i] = -1
			} else {
				v[i] = 1
			}
		}
		rng.Shuffle(dim, func(i, j int) { v[i], v[j] = v[j], v[i] })

		ok := true
		for _, e := range existing {
			d := vector.Dot(v, e)
			if d > limit || -d > limit {
				ok = false
				break
			}
		}
		if ok {
			return v, true
		}
	}
	return nil, false
}

func worstOverlap(vectors []vector.Bipolar, dim int) float64 {
	worst := 0.0
	for i := range vectors {
		for j := i + 1; j < len(vectors); j++ {
			o := math.Abs(float64(vector.Dot(vectors[i], vectors[j]))) / float64(dim)
			if o > worst {
				worst = o
			}
		}
	}
	return worst
}

// #endregion helpers
