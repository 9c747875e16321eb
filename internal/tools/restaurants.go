package tools

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"time"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
)

// reservationSuccessRate models how often the booking system finds a table at
// the requested time.
const reservationSuccessRate = 0.8

var alternativeTimes = []string{"6:00 PM", "6:30 PM", "7:30 PM", "8:00 PM"}

// SearchRestaurants returns venues suited to an apology dinner, best rated
// first. Venues are quiet places good for conversation.
func SearchRestaurants(ctx context.Context, query peaceagent.ToolQuery) ([]peaceagent.PricedOption, error) {
	if err := loadCatalogs(); err != nil {
		return nil, err
	}
	log.Printf("TOOL: Searching restaurants in '%s' (max %.2f)...", query.Location, query.MaxPrice)
	if err := simulateLatency(ctx, 50*time.Millisecond, 100*time.Millisecond); err != nil {
		return nil, err
	}

	cuisine := strings.ToLower(query.Preferences.FavoriteCuisine)

	var options []peaceagent.PricedOption
	for _, r := range restaurants.Restaurants {
		if query.MaxPrice > 0 && r.Price > query.MaxPrice {
			continue
		}
		details := map[string]string{
			"cuisine":     r.Cuisine,
			"price_range": r.PriceRange,
			"rating":      fmt.Sprintf("%.1f", r.Rating),
			"atmosphere":  r.Atmosphere,
			"features":    strings.Join(r.Features, ", "),
		}
		if query.Location != "" {
			details["address"] = fmt.Sprintf("%s, %s", r.Name, query.Location)
		}
		if cuisine != "" && strings.Contains(strings.ToLower(r.Cuisine), cuisine) {
			details["cuisine_match"] = "matches recipient's favorite cuisine"
		}
		options = append(options, peaceagent.PricedOption{
			Name:        r.Name,
			Description: fmt.Sprintf("%s, %s. Good for %s.", r.Cuisine, r.Atmosphere, r.GoodFor),
			Price:       r.Price,
			Provider:    "Reservation Desk",
			Details:     details,
		})
	}

	sort.SliceStable(options, func(i, j int) bool {
		ri := options[i].Details["rating"]
		rj := options[j].Details["rating"]
		if ri != rj {
			return ri > rj
		}
		return options[i].Price < options[j].Price
	})
	return options, nil
}

// ConfirmRestaurant attempts a reservation. Roughly one in five requests
// finds the slot taken; those fail with the open alternative times so the
// caller can surface them.
func ConfirmRestaurant(ctx context.Context, option peaceagent.PricedOption, query peaceagent.ToolQuery) (*peaceagent.ExecutionDetails, error) {
	if err := simulateLatency(ctx, 50*time.Millisecond, 50*time.Millisecond); err != nil {
		return nil, err
	}
	if rand.Float64() >= reservationSuccessRate {
		alts := make([]string, len(alternativeTimes))
		copy(alts, alternativeTimes)
		rand.Shuffle(len(alts), func(i, j int) { alts[i], alts[j] = alts[j], alts[i] })
		return nil, fmt.Errorf("no table available at %s; openings at %s", option.Name, strings.Join(alts[:2], " and "))
	}

	confirmation := fmt.Sprintf("AP%04d", 1000+rand.Intn(9000))
	log.Printf("TOOL: Reservation confirmed at %s (%s)", option.Name, confirmation)
	return &peaceagent.ExecutionDetails{
		Confirmation: confirmation,
		Provider:     option.Provider,
		Note:         fmt.Sprintf("Table for two at %s. Arrive 10 minutes early; 24-hour notice required for cancellations.", option.Name),
		Extra: map[string]string{
			"special_request": "quiet table away from high-traffic areas",
		},
	}, nil
}
