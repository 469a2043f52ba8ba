// Package provider resolves business identifiers to profile snapshots and
// discovers competitor profiles. Two implementations exist: a fixture-backed
// provider over a bundled places dataset and a live provider over the Serper
// places API.
package provider

import (
	"context"

	"github.com/sells-group/competitor-insights/internal/model"
)

// DataProvider is the capability set the comparison pipeline needs from a
// business-data backend. Implementations are selected at construction time
// via configuration, never by runtime type inspection.
type DataProvider interface {
	// Resolve maps an identifier (free-text name or URL-like string) to a
	// business profile. Implementations must not fail for a non-empty
	// identifier that merely has no match; they degrade to a synthesized
	// fallback profile instead.
	Resolve(ctx context.Context, identifier string) (model.BusinessProfile, error)

	// DiscoverCompetitors returns profiles whose category, name, or
	// description matches the query, in dataset order, capped at limit.
	// An empty query matches everything.
	DiscoverCompetitors(ctx context.Context, category string, limit int) ([]model.BusinessProfile, error)

	// Mode reports which backend this provider runs against so callers and
	// tests can branch or assert.
	Mode() model.ProviderMode
}

// Place is one record of the places dataset, in the shape returned by
// places-search APIs.
type Place struct {
	Title        string   `json:"title"`
	Address      string   `json:"address,omitempty"`
	Website      string   `json:"website,omitempty"`
	Rating       float64  `json:"rating"`
	RatingCount  int      `json:"ratingCount"`
	Type         string   `json:"type"`
	Description  string   `json:"description,omitempty"`
	OpeningHours string   `json:"openingHours,omitempty"`
	PriceLevel   string   `json:"priceLevel,omitempty"`
	BookingLinks []string `json:"bookingLinks,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}
