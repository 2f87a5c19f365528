package rules

import "sort"

// Hit records where a rule's needle occurs in an image.
type Hit struct {
	Category string
	Needle   string
	Offsets  []int
}

// Scan locates every needle of c in data without modifying it. Hits follow
// catalog order; rules whose needle does not occur get an empty Offsets.
func Scan(c *Catalog, data []byte) ([]Hit, error) {
	compiled, err := Compile(c)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, len(compiled))
	patterns := make([][]byte, len(compiled))
	for i, rule := range compiled {
		hits[i] = Hit{Category: rule.Category, Needle: rule.Rule.Needle}
		patterns[i] = rule.Needle
	}
	if len(patterns) == 0 {
		return hits, nil
	}

	matcher, err := NewAhoMatcher(patterns)
	if err != nil {
		return nil, err
	}

	// The matcher reports each pattern id once per occurrence, so identical
	// needles in different categories each get their own offsets.
	for _, m := range matcher.FindAll(data) {
		hits[m.Pattern].Offsets = append(hits[m.Pattern].Offsets, m.Offset)
	}
	for i := range hits {
		sort.Ints(hits[i].Offsets)
	}
	return hits, nil
}
