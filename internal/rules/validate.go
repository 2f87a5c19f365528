package rules

import "regexp"

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// Validate checks every rule in catalog order and returns the first failure.
func (c *Catalog) Validate() error {
	for _, cat := range c.categories {
		for _, r := range cat.Rules {
			if reason := r.check(); reason != "" {
				return &RuleError{Category: cat.Name, Needle: r.Needle, Patch: r.Patch, Reason: reason}
			}
		}
	}
	return nil
}

func (r Rule) check() Reason {
	if !isHexBytes(r.Needle) {
		return ReasonNeedle
	}
	if !isHexBytes(r.Patch) {
		return ReasonPatch
	}
	if len(r.Patch) > len(r.Needle) {
		return ReasonLength
	}
	return ""
}

func isHexBytes(s string) bool {
	return len(s)%2 == 0 && hexPattern.MatchString(s)
}
