package notifier

import (
	"testing"

	"github.com/linesmerrill/marketplace-api/models"
	"github.com/stretchr/testify/assert"
)

func str(s string) *string { return &s }

func price(f float64) *float64 { return &f }

func TestMatches(t *testing.T) {
	bike := models.Product{Title: "Road bike", Category: "bikes", Condition: "USED", City: "Lyon", Price: 250}

	tests := []struct {
		name string
		pref models.NotificationPreference
		want bool
	}{
		{"no filters matches everything", models.NotificationPreference{}, true},
		{"category match", models.NotificationPreference{Category: str("bikes")}, true},
		{"category mismatch", models.NotificationPreference{Category: str("cars")}, false},
		{"condition mismatch", models.NotificationPreference{Condition: str("NEW")}, false},
		{"city exact", models.NotificationPreference{City: str("Lyon")}, true},
		{"city is case sensitive", models.NotificationPreference{City: str("lyon")}, false},
		{"inside range", models.NotificationPreference{MinPrice: price(100), MaxPrice: price(300)}, true},
		{"below min", models.NotificationPreference{MinPrice: price(251)}, false},
		{"above max", models.NotificationPreference{MaxPrice: price(249.99)}, false},
		{"inverted range never matches", models.NotificationPreference{MinPrice: price(300), MaxPrice: price(100)}, false},
		{"all filters", models.NotificationPreference{
			Category: str("bikes"), Condition: str("USED"), City: str("Lyon"),
			MinPrice: price(250), MaxPrice: price(250),
		}, true},
		{"one failing filter fails the conjunction", models.NotificationPreference{
			Category: str("bikes"), Condition: str("USED"), City: str("Paris"),
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(bike, tt.pref))
		})
	}
}

func TestMatches_PriceBoundsAreInclusive(t *testing.T) {
	pref := models.NotificationPreference{MinPrice: price(99.99), MaxPrice: price(99.99)}

	assert.True(t, Matches(models.Product{Price: 99.99}, pref))
	assert.False(t, Matches(models.Product{Price: 99.98}, pref))
	assert.False(t, Matches(models.Product{Price: 100.00}, pref))
}
