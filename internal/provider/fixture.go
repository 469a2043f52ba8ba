package provider

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/competitor-insights/internal/model"
)

//go:embed places.json
var defaultPlacesJSON []byte

// fallbackCategories is the category pool for synthesized profiles.
var fallbackCategories = []string{"Restaurant", "Bar", "Cafe"}

// FixtureProvider serves profiles from a static places dataset. The dataset
// is read-only after construction; the RNG is the only mutable state and is
// guarded by a mutex, so one provider instance is safe for concurrent use.
type FixtureProvider struct {
	places []Place

	mu  sync.Mutex
	rng *rand.Rand
}

// NewFixture creates a fixture-backed provider over the given dataset.
// rng seeds the synthesized-fallback and image-count generation; pass a
// seeded source for deterministic tests, or nil for an OS-seeded one.
func NewFixture(places []Place, rng *rand.Rand) *FixtureProvider {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &FixtureProvider{places: places, rng: rng}
}

// LoadPlaces reads a places dataset from path. A missing or malformed file
// degrades to an empty dataset with a logged warning, never an error.
func LoadPlaces(path string) []Place {
	data, err := os.ReadFile(path)
	if err != nil {
		zap.L().Warn("provider: places dataset not readable, using empty dataset",
			zap.String("path", path),
			zap.Error(err))
		return nil
	}
	return parsePlaces(data, path)
}

// DefaultPlaces returns the dataset bundled with the binary.
func DefaultPlaces() []Place {
	return parsePlaces(defaultPlacesJSON, "embedded")
}

func parsePlaces(data []byte, source string) []Place {
	var doc struct {
		Places []Place `json:"places"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		zap.L().Warn("provider: failed to parse places dataset, using empty dataset",
			zap.String("source", source),
			zap.Error(err))
		return nil
	}
	return doc.Places
}

func (p *FixtureProvider) intN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}

func (p *FixtureProvider) float64() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

func (p *FixtureProvider) Mode() model.ProviderMode {
	return model.ProviderModeFixture
}

// isURLIdentifier reports whether the identifier looks like a website URL.
func isURLIdentifier(identifier string) bool {
	return strings.HasPrefix(identifier, "http://") ||
		strings.HasPrefix(identifier, "https://") ||
		strings.HasPrefix(identifier, "www.")
}

// Resolve matches the identifier against the dataset: URL-like identifiers
// substring-match website fields; names try an exact case-insensitive match
// first, then a substring match. An unmatched identifier yields a
// synthesized fallback profile rather than an error.
func (p *FixtureProvider) Resolve(_ context.Context, identifier string) (model.BusinessProfile, error) {
	ident := strings.ToLower(strings.TrimSpace(identifier))
	isURL := isURLIdentifier(ident)

	if isURL {
		for _, place := range p.places {
			if place.Website != "" && strings.Contains(strings.ToLower(place.Website), ident) {
				return p.mapPlace(place), nil
			}
		}
	} else {
		for _, place := range p.places {
			if strings.ToLower(place.Title) == ident {
				return p.mapPlace(place), nil
			}
		}
		for _, place := range p.places {
			if strings.Contains(strings.ToLower(place.Title), ident) {
				return p.mapPlace(place), nil
			}
		}
	}

	zap.L().Warn("provider: business not found in dataset, synthesizing fallback",
		zap.String("identifier", identifier))

	return p.synthesizeFallback(identifier, isURL), nil
}

// DiscoverCompetitors returns places whose title, description, or type
// contains the query (case-insensitive), in dataset order, capped at limit.
// An empty query matches every place.
func (p *FixtureProvider) DiscoverCompetitors(_ context.Context, category string, limit int) ([]model.BusinessProfile, error) {
	query := strings.ToLower(strings.TrimSpace(category))

	var results []model.BusinessProfile
	for _, place := range p.places {
		if limit > 0 && len(results) >= limit {
			break
		}
		if query == "" ||
			strings.Contains(strings.ToLower(place.Title), query) ||
			strings.Contains(strings.ToLower(place.Description), query) ||
			strings.Contains(strings.ToLower(place.Type), query) {
			results = append(results, p.mapPlace(place))
		}
	}
	return results, nil
}

// mapPlace converts a dataset record into a profile snapshot. Places data
// carries no image counts, so a plausible one is generated.
func (p *FixtureProvider) mapPlace(place Place) model.BusinessProfile {
	return model.BusinessProfile{
		Name:           place.Title,
		Website:        place.Website,
		Address:        place.Address,
		Latitude:       place.Latitude,
		Longitude:      place.Longitude,
		Rating:         place.Rating,
		RatingCount:    place.RatingCount,
		ImageCount:     p.intN(20) + 1,
		Category:       place.Type,
		HasHours:       place.OpeningHours != "",
		HasDescription: place.Description != "",
		HasMenuLink:    len(place.BookingLinks) > 0,
		HasPriceLevel:  place.PriceLevel != "",
	}
}

// synthesizeFallback builds a plausible placeholder profile so the pipeline
// never hard-fails on an unknown business.
func (p *FixtureProvider) synthesizeFallback(identifier string, isURL bool) model.BusinessProfile {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(identifier)), " ", "")

	name := identifier
	website := fmt.Sprintf("https://%s.com", slug)
	address := fmt.Sprintf("%s, Finland", strings.TrimSpace(identifier))
	if isURL {
		name = "Your Business"
		website = identifier
		address = "Finland"
	}

	lat := 59.9 + p.float64()*0.2
	lng := 24.9 + p.float64()*0.2

	return model.BusinessProfile{
		Name:           name,
		Website:        website,
		Address:        address,
		Latitude:       &lat,
		Longitude:      &lng,
		Rating:         3.5 + p.float64()*1.3,
		RatingCount:    p.intN(991) + 10,
		ImageCount:     p.intN(100) + 1,
		Category:       fallbackCategories[p.intN(len(fallbackCategories))],
		HasHours:       p.intN(2) == 0,
		HasDescription: p.intN(2) == 0,
		HasMenuLink:    p.intN(2) == 0,
		HasPriceLevel:  p.intN(2) == 0,
	}
}
