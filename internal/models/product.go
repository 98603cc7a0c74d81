package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

const DefaultCategory = "Uncategorized"

const placeholderImageBase = "https://via.placeholder.com/300x200/4a6cf7/ffffff?text="

type Video struct {
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// SpecValue is a specification value: either a single string or a list of
// alternatives (colors, storage sizes, ...).
type SpecValue struct {
	Values []string
	List   bool
}

func SpecString(s string) SpecValue       { return SpecValue{Values: []string{s}} }
func SpecList(values ...string) SpecValue { return SpecValue{Values: values, List: true} }

func (v SpecValue) String() string {
	return strings.Join(v.Values, ", ")
}

func (v SpecValue) MarshalJSON() ([]byte, error) {
	if v.List {
		if v.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Values)
	}
	if len(v.Values) == 0 {
		return []byte(`""`), nil
	}
	return json.Marshal(v.Values[0])
}

// UnmarshalJSON accepts strings, string lists and bare scalars (numbers,
// booleans), which are kept in their literal form.
func (v *SpecValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty specification value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = SpecString(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make([]string, 0, len(raw))
		for _, r := range raw {
			var item SpecValue
			if err := item.UnmarshalJSON(r); err != nil {
				return err
			}
			if item.List {
				return fmt.Errorf("nested specification lists are not supported")
			}
			out = append(out, item.String())
		}
		*v = SpecList(out...)
	case '{':
		return fmt.Errorf("specification value must be a string or a list of strings")
	case 'n':
		*v = SpecString("")
	default:
		*v = SpecString(string(data))
	}
	return nil
}

type Product struct {
	ID                  int                  `json:"id"`
	SKU                 string               `json:"sku"`
	Name                string               `json:"name"`
	Description         string               `json:"description"`
	DetailedDescription string               `json:"detailedDescription,omitempty"`
	Price               float64              `json:"price"`
	Discount            float64              `json:"discount,omitempty"`
	Stock               int                  `json:"stock"`
	Status              ProductStatus        `json:"status"`
	Category            string               `json:"category"`
	Subcategory         string               `json:"subcategory,omitempty"`
	Brand               string               `json:"brand,omitempty"`
	Tags                []string             `json:"tags"`
	Specifications      map[string]SpecValue `json:"specifications,omitempty"`
	Images              []string             `json:"images"`
	Thumbnail           string               `json:"thumbnail,omitempty"`
	Image               string               `json:"image,omitempty"`
	Video               *Video               `json:"video,omitempty"`
	Rating              float64              `json:"rating"`
	Reviews             int                  `json:"reviews"`
	IsFeatured          bool                 `json:"isFeatured,omitempty"`
	Weight              string               `json:"weight,omitempty"`
	Dimensions          string               `json:"dimensions,omitempty"`
	Warranty            string               `json:"warranty,omitempty"`
	CreatedAt           string               `json:"createdAt,omitempty"`
}

func (p *Product) IsActive() bool { return p.Status == ProductActive }

func (p *Product) InStock() bool { return p.Stock > 0 }

func (p *Product) EffectivePrice() float64 {
	if p.Discount <= 0 || p.Discount > 100 {
		return p.Price
	}
	return p.Price * (1 - p.Discount/100)
}

// DisplayImage is the picture used for cards and cart lines.
func (p *Product) DisplayImage() string {
	switch {
	case p.Image != "":
		return p.Image
	case p.Thumbnail != "":
		return p.Thumbnail
	case len(p.Images) > 0:
		return p.Images[0]
	}
	return ""
}

func (p *Product) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// DeriveImage picks the canonical image: first gallery image, then the
// thumbnail, then a generated placeholder carrying the product name.
func DeriveImage(images []string, thumbnail, name string) string {
	if len(images) > 0 {
		return images[0]
	}
	if thumbnail != "" {
		return thumbnail
	}
	return PlaceholderImage(name)
}

func PlaceholderImage(name string) string {
	return placeholderImageBase + url.QueryEscape(name)
}

func (p Product) Clone() Product {
	out := p
	out.Tags = cloneStrings(p.Tags)
	out.Images = cloneStrings(p.Images)
	if p.Specifications != nil {
		out.Specifications = make(map[string]SpecValue, len(p.Specifications))
		for k, v := range p.Specifications {
			out.Specifications[k] = SpecValue{Values: cloneStrings(v.Values), List: v.List}
		}
	}
	if p.Video != nil {
		v := *p.Video
		out.Video = &v
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
