package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/localshop/internal/models"
)

// PriceRange is inclusive on both ends. A nil Max means "Min or above".
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (r PriceRange) IsZero() bool { return r.Min == nil && r.Max == nil }

func (r PriceRange) Contains(price float64) bool {
	if r.Min != nil && price < *r.Min {
		return false
	}
	if r.Max != nil && price > *r.Max {
		return false
	}
	return true
}

// ParsePriceRange reads the "min-max" form used by the price dropdown:
// "100-500", "1000-" or "" for any price. A zero max is treated as open.
func ParsePriceRange(s string) (PriceRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PriceRange{}, nil
	}
	lo, hi, found := strings.Cut(s, "-")
	if !found {
		return PriceRange{}, fmt.Errorf("price range %q: want min-max", s)
	}

	var r PriceRange
	if lo = strings.TrimSpace(lo); lo != "" {
		v, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return PriceRange{}, fmt.Errorf("price range %q: %w", s, err)
		}
		r.Min = &v
	} else {
		zero := 0.0
		r.Min = &zero
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		v, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return PriceRange{}, fmt.Errorf("price range %q: %w", s, err)
		}
		if v != 0 {
			r.Max = &v
		}
	}
	return r, nil
}

type Criteria struct {
	Query           string     `json:"query,omitempty"`
	Category        string     `json:"category,omitempty"`
	Price           PriceRange `json:"price"`
	Tags            []string   `json:"tags,omitempty"`
	IncludeInactive bool       `json:"include_inactive,omitempty"`
}

// Normalized lowercases the query and tags and drops blank or repeated tags.
func (c Criteria) Normalized() Criteria {
	c.Query = strings.ToLower(strings.TrimSpace(c.Query))
	c.Category = strings.TrimSpace(c.Category)
	tags := make([]string, 0, len(c.Tags))
	for _, t := range models.DedupTags(c.Tags) {
		tags = append(tags, strings.ToLower(t))
	}
	c.Tags = tags
	return c
}

// Matches expects normalized criteria.
func Matches(p *models.Product, c Criteria) bool {
	if !c.IncludeInactive && !p.IsActive() {
		return false
	}
	if c.Query != "" && !matchesQuery(p, c.Query) {
		return false
	}
	if c.Category != "" && p.Category != c.Category {
		return false
	}
	if !c.Price.Contains(p.Price) {
		return false
	}
	for _, tag := range c.Tags {
		if !p.HasTag(tag) {
			return false
		}
	}
	return true
}

func matchesQuery(p *models.Product, q string) bool {
	fields := []string{p.Name, p.Description, p.SKU, p.Brand, p.Category, p.Subcategory, p.DetailedDescription}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Filter keeps catalog order and never touches its input.
func Filter(products []models.Product, c Criteria) []models.Product {
	c = c.Normalized()
	out := make([]models.Product, 0, len(products))
	for i := range products {
		if Matches(&products[i], c) {
			out = append(out, products[i])
		}
	}
	return out
}
