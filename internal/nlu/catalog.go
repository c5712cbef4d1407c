package nlu

import (
	"fmt"
	"strings"
)

// Catalog is the set of items the bot can put on an order. Recognized phrases
// that do not map to a catalog entry are reported back to the user as
// unsupported instead of filling the item slot.
type Catalog struct {
	items []string
	index map[string]string
}

func NewCatalog(items []string) (*Catalog, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("catalog requires at least one item")
	}

	c := &Catalog{index: make(map[string]string, len(items))}
	for _, item := range items {
		canonical := strings.ToLower(strings.TrimSpace(item))
		if canonical == "" {
			continue
		}
		c.items = append(c.items, canonical)
		c.index[canonical] = canonical
	}
	if len(c.items) == 0 {
		return nil, fmt.Errorf("catalog requires at least one item")
	}
	return c, nil
}

// Items returns the canonical item names.
func (c *Catalog) Items() []string {
	return c.items
}

// Match maps a recognized phrase to a canonical catalog entry. A phrase
// matches when it equals an entry or contains it as a word, so
// "10 kg rice" maps to "rice".
func (c *Catalog) Match(phrase string) (string, bool) {
	norm := strings.ToLower(strings.TrimSpace(phrase))
	if canonical, ok := c.index[norm]; ok {
		return canonical, true
	}
	for _, word := range strings.Fields(norm) {
		if canonical, ok := c.index[word]; ok {
			return canonical, true
		}
	}
	return "", false
}
