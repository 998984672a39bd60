package notifier

import "github.com/linesmerrill/marketplace-api/models"

// Matches reports whether product satisfies every filter set on pref. A
// preference without filters matches every product; one whose minPrice is
// above its maxPrice never matches.
func Matches(product models.Product, pref models.NotificationPreference) bool {
	if pref.Category != nil && *pref.Category != product.Category {
		return false
	}
	if pref.Condition != nil && *pref.Condition != product.Condition {
		return false
	}
	if pref.City != nil && *pref.City != product.City {
		return false
	}
	if pref.MinPrice != nil && product.Price < *pref.MinPrice {
		return false
	}
	if pref.MaxPrice != nil && product.Price > *pref.MaxPrice {
		return false
	}
	return true
}
