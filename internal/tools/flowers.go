package tools

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
)

// SearchFlowers returns apology-appropriate arrangements within the price
// ceiling, largest gesture first.
func SearchFlowers(ctx context.Context, query peaceagent.ToolQuery) ([]peaceagent.PricedOption, error) {
	if err := loadCatalogs(); err != nil {
		return nil, err
	}
	log.Printf("TOOL: Searching flower arrangements (max %.2f)...", query.MaxPrice)
	if err := simulateLatency(ctx, 50*time.Millisecond, 100*time.Millisecond); err != nil {
		return nil, err
	}

	florist := "Local Florist"
	if query.Location != "" {
		florist = fmt.Sprintf("%s Flowers & More", query.Location)
	}

	var options []peaceagent.PricedOption
	for _, a := range flowers.Arrangements {
		if query.MaxPrice > 0 && (a.Price > query.MaxPrice || a.MinBudget > query.MaxPrice) {
			continue
		}
		details := map[string]string{
			"flowers":  a.Flowers,
			"size":     a.Size,
			"delivery": a.Delivery,
		}
		if a.VaseIncluded {
			details["vase"] = "included"
		}
		if query.Preferences.FavoriteFlowers != "" &&
			strings.Contains(strings.ToLower(a.Flowers), strings.ToLower(query.Preferences.FavoriteFlowers)) {
			details["favorite"] = "matches recipient's favorite flowers"
		}
		options = append(options, peaceagent.PricedOption{
			Name:        a.Name,
			Description: fmt.Sprintf("%s. %s", a.Flowers, a.Note),
			Price:       a.Price,
			Provider:    florist,
			Details:     details,
		})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Price > options[j].Price
	})
	return options, nil
}

// ConfirmFlowers schedules a simulated delivery for the chosen arrangement.
func ConfirmFlowers(ctx context.Context, option peaceagent.PricedOption, query peaceagent.ToolQuery) (*peaceagent.ExecutionDetails, error) {
	if err := simulateLatency(ctx, 50*time.Millisecond, 50*time.Millisecond); err != nil {
		return nil, err
	}
	orderID := strings.ToUpper(uuid.NewString()[:8])
	log.Printf("TOOL: Flower delivery scheduled: %s (FL-%s)", option.Name, orderID)
	return &peaceagent.ExecutionDetails{
		Confirmation: fmt.Sprintf("FL-%s", orderID),
		Provider:     option.Provider,
		Note:         "Morning delivery recommended for maximum impact. Signature required on delivery.",
		Extra: map[string]string{
			"delivery_window":   "9am-1pm",
			"care_instructions": "Trim stems, change water daily, keep away from direct sunlight.",
		},
	}, nil
}
