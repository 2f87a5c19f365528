package rules

import "encoding/hex"

// Compiled is a rule with its needle and patch decoded.
type Compiled struct {
	Category string
	Rule     Rule
	Needle   []byte
	Patch    []byte
}

// Compile decodes every rule of c in order. It fails on the first rule that
// does not validate, so nothing downstream ever sees a partial set.
func Compile(c *Catalog) ([]Compiled, error) {
	out := make([]Compiled, 0, c.Len())
	for _, cat := range c.categories {
		for _, r := range cat.Rules {
			compiled, err := compileRule(cat.Name, r)
			if err != nil {
				return nil, err
			}
			out = append(out, compiled)
		}
	}
	return out, nil
}

func compileRule(category string, r Rule) (Compiled, error) {
	if reason := r.check(); reason != "" {
		return Compiled{}, &RuleError{Category: category, Needle: r.Needle, Patch: r.Patch, Reason: reason}
	}
	needle, err := hex.DecodeString(r.Needle)
	if err != nil {
		return Compiled{}, &RuleError{Category: category, Needle: r.Needle, Patch: r.Patch, Reason: ReasonNeedle}
	}
	patch, err := hex.DecodeString(r.Patch)
	if err != nil {
		return Compiled{}, &RuleError{Category: category, Needle: r.Needle, Patch: r.Patch, Reason: ReasonPatch}
	}
	return Compiled{
		Category: category,
		Rule:     r,
		Needle:   needle,
		Patch:    patch,
	}, nil
}
