package rules

// Select returns the categories of c that pass the include/exclude filter.
// An empty include list means every category; exclusion always wins.
func Select(c *Catalog, include, exclude []string) *Catalog {
	out := NewCatalog()
	for _, cat := range c.categories {
		if ShouldApply(cat.Name, include, exclude) {
			out.addCategory(cat.clone())
		}
	}
	return out
}

func ShouldApply(category string, include, exclude []string) bool {
	if contains(exclude, category) {
		return false
	}
	if len(include) == 0 {
		return true
	}
	return contains(include, category)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
