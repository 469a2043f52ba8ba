package main

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/competitor-insights/internal/insights"
	"github.com/sells-group/competitor-insights/internal/provider"
	"github.com/sells-group/competitor-insights/internal/store"
	anthropicpkg "github.com/sells-group/competitor-insights/pkg/anthropic"
	"github.com/sells-group/competitor-insights/pkg/perplexity"
	"github.com/sells-group/competitor-insights/pkg/serper"
)

// initProvider builds the business data provider from config.
func initProvider() (provider.DataProvider, error) {
	switch cfg.Provider.Mode {
	case "fixture", "":
		places := provider.DefaultPlaces()
		if cfg.Provider.PlacesPath != "" {
			if loaded := provider.LoadPlaces(cfg.Provider.PlacesPath); loaded != nil {
				places = loaded
			}
		}
		return provider.NewFixture(places, nil), nil
	case "live":
		if cfg.Serper.Key == "" {
			return nil, eris.New("serper key required for live provider mode")
		}
		client := serper.NewClient(cfg.Serper.Key, serper.WithBaseURL(cfg.Serper.BaseURL))
		return provider.NewLive(client), nil
	default:
		return nil, eris.Errorf("unknown provider mode: %s", cfg.Provider.Mode)
	}
}

// initLLM builds the configured LLM backend. Generation calls share one
// limiter so batch runs stay inside provider rate limits.
func initLLM() (insights.LLMProvider, error) {
	limiter := rate.NewLimiter(rate.Limit(1), 2)

	switch cfg.LLM.Backend {
	case "anthropic", "":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("anthropic key required")
		}
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		return insights.NewAnthropicProvider(client, cfg.Anthropic.Model, limiter), nil
	case "perplexity":
		if cfg.Perplexity.Key == "" {
			return nil, eris.New("perplexity key required")
		}
		client := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
		return insights.NewPerplexityProvider(client, cfg.Perplexity.Model, limiter), nil
	default:
		return nil, eris.Errorf("unknown llm backend: %s", cfg.LLM.Backend)
	}
}

// initService assembles the comparison service from config.
func initService() (*insights.Service, error) {
	data, err := initProvider()
	if err != nil {
		return nil, err
	}
	llm, err := initLLM()
	if err != nil {
		return nil, err
	}
	return insights.NewService(data, llm), nil
}

// initStore opens the configured report store and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
