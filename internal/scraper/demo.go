package scraper

import "github.com/JakeFAU/adforge/internal/product"

// DemoProduct is the synthetic record returned when every tier fails. The
// URL is accepted for symmetry with the other tiers and does not change the
// result.
func DemoProduct(_ string) product.Scraped {
	return product.Scraped{
		Title:       "Premium Wireless Bluetooth Headphones",
		Description: "High-quality wireless headphones with active noise cancellation, 30-hour battery life, and premium sound quality. Perfect for music lovers, professionals, and travelers who demand the best audio experience.",
		Price:       product.NewPrice(149.99),
		Currency:    product.DefaultCurrency,
		Images: []string{
			"https://via.placeholder.com/500x500?text=Headphones+Main",
			"https://via.placeholder.com/500x500?text=Side+View",
			"https://via.placeholder.com/500x500?text=Features",
		},
		Category: "Electronics",
		Brand:    "AudioTech Pro",
		Features: []string{
			"Active Noise Cancellation Technology",
			"30-Hour Battery Life",
			"Premium Sound Quality with Deep Bass",
			"Comfortable Over-Ear Design",
			"Quick Charge - 5min charge for 2 hours playback",
			"Built-in Microphone for Calls",
			"Foldable and Portable Design",
		},
		Specifications: map[string]string{
			"Battery Life":       "30 hours",
			"Charging Time":      "2 hours",
			"Weight":             "250g",
			"Connectivity":       "Bluetooth 5.0",
			"Frequency Response": "20Hz - 20kHz",
			"Impedance":          "32 ohms",
			"Driver Size":        "40mm",
		},
		TargetAudience: []string{"Music Lovers", "Business Professionals", "Students", "Travelers"},
		Keywords:       []string{"wireless", "bluetooth", "headphones", "noise", "cancellation", "premium", "battery", "quality", "portable", "comfortable"},
	}
}
