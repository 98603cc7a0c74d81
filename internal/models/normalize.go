package models

import "strings"

// The Normalize functions run once, when collections are read from the store,
// so the rest of the code never has to re-default optional fields.

func NormalizeProduct(p *Product) {
	if p.Status != ProductActive && p.Status != ProductInactive {
		p.Status = ProductActive
	}
	if strings.TrimSpace(p.Category) == "" {
		p.Category = DefaultCategory
	}
	if p.Stock < 0 {
		p.Stock = 0
	}
	if p.Price < 0 {
		p.Price = 0
	}
	if p.Discount < 0 || p.Discount > 100 {
		p.Discount = 0
	}
	if p.Reviews < 0 {
		p.Reviews = 0
	}
	p.Tags = DedupTags(p.Tags)
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Image == "" {
		p.Image = DeriveImage(p.Images, p.Thumbnail, p.Name)
	}
	if p.Video != nil && p.Video.URL == "" {
		p.Video = nil
	}
}

func NormalizeOrder(o *Order) {
	if !o.Status.Valid() {
		o.Status = OrderPending
	}
	if o.Items == nil {
		o.Items = []OrderItem{}
	}
	if o.Date == "" {
		if t := o.PlacedAt(); !t.IsZero() {
			o.Date = FormatDate(t)
		}
	}
	o.EnsureHistory()
}

func NormalizeCartItem(c *CartItem) bool {
	return c.ProductID != 0 && c.Quantity >= 1
}

// DedupTags trims tags and drops empty and case-insensitive duplicates,
// keeping the first spelling seen.
func DedupTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ParseTags splits the comma separated tag field of the admin form.
func ParseTags(text string) []string {
	return DedupTags(strings.Split(text, ","))
}

// ParseImages splits the one-URL-per-line images field of the admin form.
func ParseImages(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
