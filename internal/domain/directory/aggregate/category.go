package aggregate

import (
	"strings"
	"unicode"
)

// TemplatePrefix is prepended to a bucket slug to name its detail template.
const TemplatePrefix = "detail/"

// DefaultCategories are the categories offered by the admin create form.
var DefaultCategories = []string{
	"DIY",
	"Beauty",
	"Food",
	"Food Court",
	"Entertainment",
	"Health and Wellness",
	"Lifestyle and Home Living",
	"Convenience and Services",
	"Snacks and Dessert",
	"Sports and Shoes",
}

// Category maps a display category to its presentation bucket.
type Category struct {
	Name     string `json:"name"`
	Bucket   string `json:"bucket"`
	Template string `json:"template"`
}

// Catalog is an immutable category lookup table.
type Catalog struct {
	byName map[string]Category
	order  []Category
}

// NewCatalog builds a catalog of DefaultCategories plus extra. Blank and
// duplicate names are skipped.
func NewCatalog(extra ...string) *Catalog {
	c := &Catalog{byName: make(map[string]Category)}
	for _, name := range append(append([]string{}, DefaultCategories...), extra...) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := c.byName[name]; ok {
			continue
		}
		bucket := Slug(name)
		cat := Category{Name: name, Bucket: bucket, Template: TemplatePrefix + bucket}
		c.byName[name] = cat
		c.order = append(c.order, cat)
	}
	return c
}

// Lookup matches name exactly after trimming.
func (c *Catalog) Lookup(name string) (Category, bool) {
	cat, ok := c.byName[strings.TrimSpace(name)]
	return cat, ok
}

// Categories returns the catalog in declaration order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.order))
	copy(out, c.order)
	return out
}

// Slug lowercases name and joins its alphanumeric runs with '-'.
func Slug(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "-")
}
