package models

// SeedCatalog is the built-in catalog written on first start when the
// product collection is empty.
func SeedCatalog() []Product {
	return []Product{
		{
			ID:    1,
			SKU:   "SMART-001",
			Name:  "Smartphone X Pro",
			Price: 2999.00,
			Images: []string{
				"https://via.placeholder.com/400x400/4a6cf7/ffffff?text=Smartphone+Front",
				"https://via.placeholder.com/400x400/4a6cf7/ffffff?text=Smartphone+Back",
				"https://via.placeholder.com/400x400/4a6cf7/ffffff?text=Smartphone+Side",
			},
			Thumbnail:           "https://via.placeholder.com/300x300/4a6cf7/ffffff?text=Smartphone",
			Description:         "Latest smartphone with high-performance processor and excellent camera",
			DetailedDescription: "<h4>Advanced Features</h4><p>6.7-inch Super Retina XDR display, A16 Bionic chip, 48MP pro camera system, 5G and all-day battery life.</p>",
			Category:            "Electronics",
			Subcategory:         "Smartphones",
			Brand:               "TechBrand",
			Tags:                []string{"smartphone", "mobile", "flagship", "5g", "camera", "premium"},
			Specifications: map[string]SpecValue{
				"color":     SpecList("Space Gray", "Silver", "Gold"),
				"storage":   SpecList("256GB", "512GB", "1TB"),
				"display":   SpecString("6.7-inch OLED"),
				"processor": SpecString("A16 Bionic"),
				"ram":       SpecString("8GB"),
				"battery":   SpecString("4323mAh"),
			},
			Rating:     4.8,
			Reviews:    1250,
			Stock:      50,
			Status:     ProductActive,
			CreatedAt:  "2024-01-15",
			IsFeatured: true,
			Weight:     "0.5kg",
			Dimensions: "160.8 x 78.1 x 7.85 mm",
			Warranty:   "1 year",
		},
		{
			ID:    2,
			SKU:   "LAP-002",
			Name:  "UltraBook Pro Laptop",
			Price: 5999.00,
			Images: []string{
				"https://via.placeholder.com/400x400/34c759/ffffff?text=Laptop+Front",
				"https://via.placeholder.com/400x400/34c759/ffffff?text=Laptop+Open",
				"https://via.placeholder.com/400x400/34c759/ffffff?text=Laptop+Side",
			},
			Thumbnail:           "https://via.placeholder.com/300x300/34c759/ffffff?text=Laptop",
			Description:         "Professional laptop with 16-inch display and powerful performance",
			DetailedDescription: "<h4>Professional Performance</h4><p>16-inch Liquid Retina XDR display, M2 Pro chip, up to 96GB unified memory and Thunderbolt 4 connectivity.</p>",
			Category:            "Electronics",
			Subcategory:         "Laptops",
			Brand:               "TechBrand",
			Tags:                []string{"laptop", "professional", "portable", "performance", "workstation"},
			Specifications: map[string]SpecValue{
				"color":     SpecList("Space Gray", "Silver"),
				"storage":   SpecList("512GB", "1TB", "2TB"),
				"display":   SpecString("16.2-inch Liquid Retina XDR"),
				"processor": SpecString("M2 Pro"),
				"ram":       SpecString("32GB"),
				"graphics":  SpecString("19-core GPU"),
				"battery":   SpecString("100Wh"),
				"weight":    SpecString("2.15kg"),
			},
			Rating:     4.9,
			Reviews:    890,
			Stock:      30,
			Status:     ProductActive,
			CreatedAt:  "2024-01-14",
			IsFeatured: true,
			Discount:   10,
		},
	}
}
