package provider

import (
	"context"

	"github.com/sells-group/competitor-insights/internal/apperr"
	"github.com/sells-group/competitor-insights/internal/model"
	"github.com/sells-group/competitor-insights/pkg/serper"
)

// LiveProvider resolves businesses through the Serper places API.
//
// The live search integration is not implemented yet: resolving a business
// by website URL needs a text-search → place-details flow that the places
// endpoint does not offer directly. Until that lands, every call fails with
// a typed external-API error. The transport client is already wired so the
// integration only has to fill in the mapping.
type LiveProvider struct {
	client serper.Client
}

// NewLive creates a live provider over the given Serper client.
func NewLive(client serper.Client) *LiveProvider {
	return &LiveProvider{client: client}
}

func (p *LiveProvider) Mode() model.ProviderMode {
	return model.ProviderModeLive
}

func (p *LiveProvider) Resolve(_ context.Context, identifier string) (model.BusinessProfile, error) {
	return model.BusinessProfile{}, apperr.ExternalAPI("serper", "live business resolution not implemented")
}

func (p *LiveProvider) DiscoverCompetitors(_ context.Context, _ string, _ int) ([]model.BusinessProfile, error) {
	return nil, apperr.ExternalAPI("serper", "live competitor search not implemented")
}
