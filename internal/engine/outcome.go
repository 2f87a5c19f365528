package engine

import "github.com/lkpatch/lkpatch/internal/policy"

// Outcome is the per-rule result of one Apply call.
type Outcome struct {
	Categories []CategoryOutcome
	Total      int
	Applied    int
	Skipped    int
	Verdict    policy.Verdict
}

type CategoryOutcome struct {
	Name    string
	Entries []Entry
}

type Entry struct {
	Needle  string
	Patch   string
	Applied bool
	// Offset is where the patch was written, -1 if nothing was written.
	Offset int
}

// Results flattens the outcome to category -> needle -> applied.
func (o *Outcome) Results() map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(o.Categories))
	for _, cat := range o.Categories {
		entries := make(map[string]bool, len(cat.Entries))
		for _, e := range cat.Entries {
			entries[e.Needle] = e.Applied
		}
		out[cat.Name] = entries
	}
	return out
}

// AppliedIn counts applied rules per category, in outcome order.
func (o *Outcome) AppliedIn(category string) int {
	for _, cat := range o.Categories {
		if cat.Name != category {
			continue
		}
		n := 0
		for _, e := range cat.Entries {
			if e.Applied {
				n++
			}
		}
		return n
	}
	return 0
}
