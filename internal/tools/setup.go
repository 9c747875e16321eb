package tools

import (
	"github.com/TrevorConnolly/ApologyAgent/internal/adapters"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
)

// SetupAdapters creates the built-in gesture providers, keyed by the action
// type each one serves.
func SetupAdapters() map[peaceagent.ActionType]peaceagent.ToolAdapter {
	return map[peaceagent.ActionType]peaceagent.ToolAdapter{
		peaceagent.ActionMessage: adapters.NewProviderAdapter(
			"message_crafter",
			peaceagent.ActionMessage,
			SearchMessages,
			ConfirmMessage,
			adapters.WithDescription("Crafts a personalized apology message for the recipient."),
			adapters.WithCategory("Communication"),
			adapters.WithParameters(map[string]string{
				"recipient":    "Name of the recipient",
				"relationship": "Relationship to the recipient",
				"tone":         "Desired tone of the message",
			}),
			adapters.WithReturns("A rendered apology message as a free option."),
		),
		peaceagent.ActionGift: adapters.NewProviderAdapter(
			"gift_finder",
			peaceagent.ActionGift,
			SearchGifts,
			ConfirmGift,
			adapters.WithDescription("Searches curated gift ideas matched to the recipient and budget."),
			adapters.WithCategory("Shopping"),
			adapters.WithParameters(map[string]string{
				"relationship": "Relationship to the recipient",
				"max_price":    "Price ceiling for suggestions",
				"interests":    "Recipient interests used for relevance",
			}),
			adapters.WithReturns("Up to eight gift suggestions, most relevant first."),
		),
		peaceagent.ActionFlowers: adapters.NewProviderAdapter(
			"flower_delivery",
			peaceagent.ActionFlowers,
			SearchFlowers,
			ConfirmFlowers,
			adapters.WithDescription("Finds apology-appropriate flower arrangements and schedules delivery."),
			adapters.WithCategory("Delivery"),
			adapters.WithParameters(map[string]string{
				"max_price": "Price ceiling for arrangements",
				"location":  "Delivery area used to pick a florist",
			}),
			adapters.WithReturns("Arrangements within budget, largest gesture first."),
		),
		peaceagent.ActionRestaurant: adapters.NewProviderAdapter(
			"restaurant_booker",
			peaceagent.ActionRestaurant,
			SearchRestaurants,
			ConfirmRestaurant,
			adapters.WithDescription("Finds quiet venues for an apology dinner and books a table."),
			adapters.WithCategory("Booking"),
			adapters.WithParameters(map[string]string{
				"location":  "City or area to search",
				"max_price": "Price ceiling for the dinner",
				"cuisine":   "Preferred cuisine, if known",
			}),
			adapters.WithReturns("Venues suited to serious conversations, best rated first."),
		),
	}
}
