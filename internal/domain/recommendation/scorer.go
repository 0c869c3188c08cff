package recommendation

import (
	"math"
	"sort"

	"github.com/brewcycle/brewcycle/internal/domain/preference"
	"github.com/brewcycle/brewcycle/internal/domain/product"
	"github.com/samber/lo"
)

const (
	likedWeight     = 50.0
	dislikedWeight  = 30.0
	intensityWeight = 20.0
	// points lost per step of intensity difference
	intensityStep = 5.0
)

// Preferences is what the scorer needs from a user's stated tastes
type Preferences struct {
	LikedFlavors       []string
	DislikedFlavors    []string
	PreferredIntensity *int
}

// FlavorProfile is what the scorer needs from a product
type FlavorProfile struct {
	Characteristics []string
	Intensity       *int
}

// FromFlavorPreferences adapts stored preferences
func FromFlavorPreferences(p *preference.FlavorPreferences) Preferences {
	if p == nil {
		return Preferences{}
	}
	return Preferences{
		LikedFlavors:       p.LikedFlavors,
		DislikedFlavors:    p.DislikedFlavors,
		PreferredIntensity: p.PreferredIntensity,
	}
}

// ProfileOf returns the flavor profile of a catalog product
func ProfileOf(p *product.Product) FlavorProfile {
	return FlavorProfile{
		Characteristics: p.FlavorCharacteristics,
		Intensity:       p.FlavorIntensity,
	}
}

// Score rates how well profile fits prefs on a 0-100 scale:
//   - up to 50 for the share of liked flavors the product has
//   - 30 minus the share of disliked flavors it has, scaled to 30; full 30 when nothing is disliked
//   - 20 minus 5 per step of intensity difference, 0 when either intensity is unknown
//
// Flavor lists are compared as sets with exact string matching.
func Score(prefs Preferences, profile FlavorProfile) int {
	liked := lo.Uniq(prefs.LikedFlavors)
	disliked := lo.Uniq(prefs.DislikedFlavors)
	characteristics := lo.Uniq(profile.Characteristics)

	var total float64

	if len(liked) > 0 {
		matches := len(lo.Intersect(characteristics, liked))
		total += math.Min(likedWeight, float64(matches)/float64(len(liked))*likedWeight)
	}

	if len(disliked) == 0 {
		total += dislikedWeight
	} else {
		matches := len(lo.Intersect(characteristics, disliked))
		total += dislikedWeight - float64(matches)/float64(len(disliked))*dislikedWeight
	}

	if prefs.PreferredIntensity != nil && profile.Intensity != nil {
		diff := math.Abs(float64(*prefs.PreferredIntensity - *profile.Intensity))
		total += math.Max(0, intensityWeight-intensityStep*diff)
	}

	return lo.Clamp(int(math.Round(total)), 0, 100)
}

// ScoredProduct is a catalog product with its match score
type ScoredProduct struct {
	Product    *product.Product `json:"product"`
	MatchScore int              `json:"match_score"`
}

// SortByMatch scores every product against prefs and orders them best first.
// Products with equal scores keep their input order.
func SortByMatch(products []*product.Product, prefs Preferences) []ScoredProduct {
	scored := lo.Map(products, func(p *product.Product, _ int) ScoredProduct {
		return ScoredProduct{Product: p, MatchScore: Score(prefs, ProfileOf(p))}
	})
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})
	return scored
}
