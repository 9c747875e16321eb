package tools

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
)

// simulateLatency mimics a provider round trip while honoring cancellation.
func simulateLatency(ctx context.Context, base, jitter time.Duration) error {
	delay := base
	if jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(jitter)))
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// giftCatalogFor maps a relationship to its gift shelf. Colleagues and
// acquaintances get the friend shelf, which skips anything intimate.
func giftCatalogFor(relationship peaceagent.RelationshipType) []giftItem {
	if items, ok := gifts.Relationships[string(relationship)]; ok {
		return items
	}
	return gifts.Relationships[string(peaceagent.RelationshipFriend)]
}

// SearchGifts returns curated gift suggestions for the recipient, most
// relevant first, capped at eight.
func SearchGifts(ctx context.Context, query peaceagent.ToolQuery) ([]peaceagent.PricedOption, error) {
	if err := loadCatalogs(); err != nil {
		return nil, err
	}
	log.Printf("TOOL: Searching gifts for %s (%s, max %.2f)...",
		query.Recipient, query.Relationship, query.MaxPrice)
	if err := simulateLatency(ctx, 50*time.Millisecond, 100*time.Millisecond); err != nil {
		return nil, err
	}

	type scored struct {
		option    peaceagent.PricedOption
		relevance float64
	}
	var results []scored
	for _, item := range giftCatalogFor(query.Relationship) {
		if query.MaxPrice > 0 && item.Price > query.MaxPrice {
			continue
		}
		relevance := 0.6
		for _, interest := range query.Preferences.Interests {
			if interest != "" && strings.Contains(strings.ToLower(item.Description), strings.ToLower(interest)) {
				relevance = 0.8
				break
			}
		}
		results = append(results, scored{
			option: peaceagent.PricedOption{
				Name:        item.Name,
				Description: item.Description,
				Price:       item.Price,
				Provider:    "Curated Gift Finder",
				Details: map[string]string{
					"category":  item.Category,
					"relevance": fmt.Sprintf("%.1f", relevance),
				},
			},
			relevance: relevance,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].relevance != results[j].relevance {
			return results[i].relevance > results[j].relevance
		}
		return results[i].option.Price < results[j].option.Price
	})

	options := make([]peaceagent.PricedOption, 0, len(results))
	for _, r := range results {
		options = append(options, r.option)
		if len(options) == 8 {
			break
		}
	}
	return options, nil
}

// ConfirmGift places a simulated order for the chosen gift.
func ConfirmGift(ctx context.Context, option peaceagent.PricedOption, query peaceagent.ToolQuery) (*peaceagent.ExecutionDetails, error) {
	if err := simulateLatency(ctx, 50*time.Millisecond, 50*time.Millisecond); err != nil {
		return nil, err
	}
	orderID := strings.ToUpper(uuid.NewString()[:8])
	log.Printf("TOOL: Gift order placed: %s (%s)", option.Name, orderID)
	return &peaceagent.ExecutionDetails{
		Confirmation: fmt.Sprintf("GF-%s", orderID),
		Provider:     option.Provider,
		Note:         fmt.Sprintf("%s ordered for %s. Include a handwritten note for a personal touch.", option.Name, query.Recipient),
		Extra: map[string]string{
			"category": option.Details["category"],
		},
	}, nil
}
