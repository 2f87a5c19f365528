package rules

import "errors"

// AhoMatcher finds every occurrence of a set of byte patterns in one pass.
type AhoMatcher struct {
	nodes   []ahoNode
	lengths []int
}

type ahoNode struct {
	next map[byte]int
	fail int
	out  []int
}

// AhoMatch is one occurrence of pattern Pattern ending inside the input.
// Offset is where the occurrence starts.
type AhoMatch struct {
	Pattern int
	Offset  int
}

func NewAhoMatcher(patterns [][]byte) (*AhoMatcher, error) {
	if len(patterns) == 0 {
		return nil, errors.New("patterns are required")
	}

	nodes := []ahoNode{{next: map[byte]int{}, fail: 0}}
	lengths := make([]int, len(patterns))
	for id, pattern := range patterns {
		lengths[id] = len(pattern)
		if len(pattern) == 0 {
			continue
		}
		current := 0
		for _, b := range pattern {
			next, ok := nodes[current].next[b]
			if !ok {
				nodes = append(nodes, ahoNode{next: map[byte]int{}, fail: 0})
				next = len(nodes) - 1
				nodes[current].next[b] = next
			}
			current = next
		}
		nodes[current].out = append(nodes[current].out, id)
	}

	if len(nodes) == 1 {
		return nil, errors.New("no non-empty patterns")
	}

	queue := make([]int, 0)
	for _, next := range nodes[0].next {
		nodes[next].fail = 0
		queue = append(queue, next)
	}

	for len(queue) > 0 {
		state := queue[0]
		queue = queue[1:]

		for b, next := range nodes[state].next {
			fail := nodes[state].fail
			for fail != 0 {
				if _, ok := nodes[fail].next[b]; ok {
					break
				}
				fail = nodes[fail].fail
			}
			if target, ok := nodes[fail].next[b]; ok {
				nodes[next].fail = target
			} else {
				nodes[next].fail = 0
			}
			nodes[next].out = append(nodes[next].out, nodes[nodes[next].fail].out...)
			queue = append(queue, next)
		}
	}

	return &AhoMatcher{nodes: nodes, lengths: lengths}, nil
}

// FindAll returns every match in input ordered by end position.
func (m *AhoMatcher) FindAll(input []byte) []AhoMatch {
	var matches []AhoMatch
	state := 0
	for i, b := range input {
		for state != 0 {
			if _, ok := m.nodes[state].next[b]; ok {
				break
			}
			state = m.nodes[state].fail
		}

		if next, ok := m.nodes[state].next[b]; ok {
			state = next
		}

		for _, id := range m.nodes[state].out {
			matches = append(matches, AhoMatch{Pattern: id, Offset: i - m.lengths[id] + 1})
		}
	}
	return matches
}
