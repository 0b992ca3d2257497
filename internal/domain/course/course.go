// Package course holds static course data and handicap stroke allocation.
package course

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/okian/skins/internal/domain/model"
	"github.com/shopspring/decimal"
)

// DefaultCategory is used when tees or genders are not distinguished.
const DefaultCategory = "default"

// MaxHoles is the longest round a profile may describe.
const MaxHoles = 18

// HalfStroke is the only non-zero allowance a hole can receive.
var HalfStroke = decimal.New(5, -1) //nolint:gochecknoglobals // immutable constant

// StrokePolicy selects what HandicapStroke failures do during net scoring.
type StrokePolicy string

// Stroke policies.
const (
	// StrokeStrict aborts the computation with ErrInvalidInput.
	StrokeStrict StrokePolicy = "strict"
	// StrokeLenient treats the lookup as zero strokes and logs a warning.
	StrokeLenient StrokePolicy = "lenient"
)

// ParseStrokePolicy parses a configuration value. Empty means strict.
func ParseStrokePolicy(s string) (StrokePolicy, error) {
	switch StrokePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrokeStrict:
		return StrokeStrict, nil
	case StrokeLenient:
		return StrokeLenient, nil
	default:
		return "", fmt.Errorf("%w: unknown stroke policy %q", ErrInvalidConfiguration, s)
	}
}

// Profile describes a course: par and per-category hole difficulty ranks.
// Rank 1 is the hardest hole.
type Profile struct {
	Name  string           `json:"name"`
	Holes int              `json:"holes"`
	Par   []int            `json:"par"`
	Ranks map[string][]int `json:"ranks"`
}

// Validate checks the profile's structure.
func (p Profile) Validate() error {
	if p.Holes < 1 || p.Holes > MaxHoles {
		return fmt.Errorf("%w: holes must be in [1,%d], got %d", ErrInvalidConfiguration, MaxHoles, p.Holes)
	}
	if len(p.Par) != p.Holes {
		return fmt.Errorf("%w: par has %d entries for %d holes", ErrInvalidConfiguration, len(p.Par), p.Holes)
	}
	for i, par := range p.Par {
		if par <= 0 {
			return fmt.Errorf("%w: par for hole %d must be positive", ErrInvalidConfiguration, i+1)
		}
	}
	if len(p.Ranks) == 0 {
		return fmt.Errorf("%w: course %q has no rank categories", ErrInvalidConfiguration, p.Name)
	}
	for category, ranks := range p.Ranks {
		if err := checkPermutation(ranks, p.Holes); err != nil {
			return fmt.Errorf("%w: category %q: %w", ErrInvalidConfiguration, category, err)
		}
	}
	return nil
}

// ValidateStandard additionally requires a 9 or 18 hole course.
func (p Profile) ValidateStandard() error {
	if p.Holes != 9 && p.Holes != MaxHoles {
		return fmt.Errorf("%w: a course has 9 or 18 holes, got %d", ErrInvalidConfiguration, p.Holes)
	}
	return p.Validate()
}

func checkPermutation(ranks []int, n int) error {
	if len(ranks) != n {
		return fmt.Errorf("%d ranks for %d holes", len(ranks), n)
	}
	seen := make([]bool, n+1)
	for i, r := range ranks {
		if r < 1 || r > n {
			return fmt.Errorf("rank %d on hole %d out of range", r, i+1)
		}
		if seen[r] {
			return fmt.Errorf("rank %d repeated", r)
		}
		seen[r] = true
	}
	return nil
}

// Categories returns the rank categories in sorted order.
func (p Profile) Categories() []string {
	out := make([]string, 0, len(p.Ranks))
	for c := range p.Ranks {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Rank returns the difficulty rank of a hole for a category.
func (p Profile) Rank(hole int, category string) (int, error) {
	if category == "" {
		category = DefaultCategory
	}
	ranks, ok := p.Ranks[category]
	if !ok {
		return 0, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	if hole < 1 || hole > len(ranks) {
		return 0, fmt.Errorf("%w: hole %d out of range [1,%d]", ErrInvalidInput, hole, len(ranks))
	}
	return ranks[hole-1], nil
}

// HandicapStroke returns the half-pop allowance for a hole: 0.5 when the
// hole's rank is at most floor(handicap), otherwise 0. An absent handicap
// always gets 0.
func (p Profile) HandicapStroke(h model.Handicap, hole int, category string) (decimal.Decimal, error) {
	index, ok := h.Value()
	if !ok {
		return decimal.Zero, nil
	}
	rank, err := p.Rank(hole, category)
	if err != nil {
		return decimal.Zero, err
	}
	if decimal.NewFromInt(int64(rank)).LessThanOrEqual(index.Floor()) {
		return HalfStroke, nil
	}
	return decimal.Zero, nil
}

// Clone returns a deep copy so callers cannot mutate shared tables.
func (p Profile) Clone() Profile {
	out := Profile{Name: p.Name, Holes: p.Holes, Par: slices.Clone(p.Par)}
	if p.Ranks != nil {
		out.Ranks = make(map[string][]int, len(p.Ranks))
		for c, r := range p.Ranks {
			out.Ranks[c] = slices.Clone(r)
		}
	}
	return out
}

// Default18 is the built-in 18 hole course.
func Default18() Profile {
	return Profile{
		Name:  "Municipal 18",
		Holes: 18,
		Par:   []int{4, 4, 5, 3, 4, 4, 3, 5, 4, 4, 5, 3, 4, 4, 3, 5, 4, 4},
		Ranks: map[string][]int{
			DefaultCategory: {7, 15, 1, 11, 3, 17, 9, 13, 5, 8, 16, 2, 12, 4, 18, 10, 14, 6},
			"forward":       {9, 13, 3, 17, 1, 11, 15, 5, 7, 10, 2, 18, 6, 14, 16, 4, 8, 12},
		},
	}
}

// Default9 is the built-in 9 hole course.
func Default9() Profile {
	return Profile{
		Name:  "Municipal 9",
		Holes: 9,
		Par:   []int{4, 4, 5, 3, 4, 4, 3, 5, 4},
		Ranks: map[string][]int{
			DefaultCategory: {4, 8, 1, 6, 2, 9, 5, 7, 3},
		},
	}
}
