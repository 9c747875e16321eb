// Package tools provides the built-in gesture providers: curated gift search,
// flower delivery, restaurant booking, and message crafting. Providers serve
// from embedded catalogs and simulate the booking side of each vendor.
package tools

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var catalogFS embed.FS

type giftItem struct {
	Name        string  `yaml:"name"`
	Category    string  `yaml:"category"`
	Price       float64 `yaml:"price"`
	Description string  `yaml:"description"`
}

type giftCatalog struct {
	Relationships map[string][]giftItem `yaml:"relationships"`
}

type flowerArrangement struct {
	Name         string  `yaml:"name"`
	Flowers      string  `yaml:"flowers"`
	Price        float64 `yaml:"price"`
	Size         string  `yaml:"size"`
	MinBudget    float64 `yaml:"min_budget"`
	VaseIncluded bool    `yaml:"vase_included"`
	Note         string  `yaml:"note"`
	Delivery     string  `yaml:"delivery"`
}

type flowerCatalog struct {
	Arrangements []flowerArrangement `yaml:"arrangements"`
}

type restaurantEntry struct {
	Name       string   `yaml:"name"`
	Cuisine    string   `yaml:"cuisine"`
	PriceRange string   `yaml:"price_range"`
	Price      float64  `yaml:"price"`
	Rating     float64  `yaml:"rating"`
	Atmosphere string   `yaml:"atmosphere"`
	Features   []string `yaml:"features"`
	GoodFor    string   `yaml:"good_for"`
}

type restaurantCatalog struct {
	Restaurants []restaurantEntry `yaml:"restaurants"`
}

type messageTemplate struct {
	Opening        string `yaml:"opening"`
	Acknowledgment string `yaml:"acknowledgment"`
	Responsibility string `yaml:"responsibility"`
	Impact         string `yaml:"impact"`
	Commitment     string `yaml:"commitment"`
	Closing        string `yaml:"closing"`
}

type messageCatalog struct {
	Templates    map[string]map[string]messageTemplate `yaml:"templates"`
	DefaultTones map[string]string                     `yaml:"default_tones"`
}

var (
	catalogOnce sync.Once
	catalogErr  error

	gifts       giftCatalog
	flowers     flowerCatalog
	restaurants restaurantCatalog
	messages    messageCatalog
)

// loadCatalogs parses the embedded catalog files once. Subsequent calls
// return the cached result.
func loadCatalogs() error {
	catalogOnce.Do(func() {
		for _, c := range []struct {
			path string
			dest interface{}
		}{
			{"data/gifts.yaml", &gifts},
			{"data/flowers.yaml", &flowers},
			{"data/restaurants.yaml", &restaurants},
			{"data/messages.yaml", &messages},
		} {
			raw, err := catalogFS.ReadFile(c.path)
			if err != nil {
				catalogErr = fmt.Errorf("failed to read catalog %s: %w", c.path, err)
				return
			}
			if err := yaml.Unmarshal(raw, c.dest); err != nil {
				catalogErr = fmt.Errorf("failed to parse catalog %s: %w", c.path, err)
				return
			}
		}
	})
	return catalogErr
}
