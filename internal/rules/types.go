package rules

// Rule replaces the first occurrence of Needle with Patch. Both are hex strings.
type Rule struct {
	Needle string
	Patch  string
}

type Category struct {
	Name  string
	Rules []Rule

	index map[string]int
}

// Catalog is an ordered set of categories. Order is insertion order and is
// preserved through merges, selection and export.
type Catalog struct {
	categories []*Category
	index      map[string]int
}

func NewCatalog() *Catalog {
	return &Catalog{index: map[string]int{}}
}

func (c *Catalog) Categories() []*Category {
	return c.categories
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		names = append(names, cat.Name)
	}
	return names
}

func (c *Catalog) Category(name string) (*Category, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.categories[i], true
}

// Len returns the number of rules across all categories.
func (c *Catalog) Len() int {
	n := 0
	for _, cat := range c.categories {
		n += len(cat.Rules)
	}
	return n
}

func (c *Catalog) Clone() *Catalog {
	out := NewCatalog()
	for _, cat := range c.categories {
		out.addCategory(cat.clone())
	}
	return out
}

// Set adds or overwrites the rule for needle in category, creating the
// category when needed.
func (c *Catalog) Set(category, needle, patch string) {
	cat, ok := c.Category(category)
	if !ok {
		cat = &Category{Name: category, index: map[string]int{}}
		c.addCategory(cat)
	}
	cat.set(needle, patch)
}

func (c *Catalog) addCategory(cat *Category) {
	if i, ok := c.index[cat.Name]; ok {
		c.categories[i] = cat
		return
	}
	c.index[cat.Name] = len(c.categories)
	c.categories = append(c.categories, cat)
}

func (cat *Category) Rule(needle string) (Rule, bool) {
	i, ok := cat.index[needle]
	if !ok {
		return Rule{}, false
	}
	return cat.Rules[i], true
}

func (cat *Category) Needles() []string {
	out := make([]string, 0, len(cat.Rules))
	for _, r := range cat.Rules {
		out = append(out, r.Needle)
	}
	return out
}

func (cat *Category) set(needle, patch string) {
	if i, ok := cat.index[needle]; ok {
		cat.Rules[i].Patch = patch
		return
	}
	cat.index[needle] = len(cat.Rules)
	cat.Rules = append(cat.Rules, Rule{Needle: needle, Patch: patch})
}

func (cat *Category) clone() *Category {
	out := &Category{
		Name:  cat.Name,
		Rules: append([]Rule(nil), cat.Rules...),
		index: make(map[string]int, len(cat.index)),
	}
	for k, v := range cat.index {
		out.index[k] = v
	}
	return out
}
