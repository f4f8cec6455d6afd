package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar-coach/internal/coach"
	"github.com/sells-group/radar-coach/internal/history"
	"github.com/sells-group/radar-coach/internal/quality"
	"github.com/sells-group/radar-coach/internal/store"
	"github.com/sells-group/radar-coach/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		s, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initClient picks the real API client or the scripted offline model.
// Without a key there is nothing to call, so dev mode is implied.
func initClient() anthropic.Client {
	if cfg.Anthropic.DevMode || cfg.Anthropic.Key == "" {
		zap.L().Info("using offline dev model")
		return coach.NewDevModel()
	}
	return anthropic.NewClient(cfg.Anthropic.Key)
}

func initCorpus() *history.Corpus {
	var fetcher *history.Fetcher
	if !cfg.History.Offline {
		fetcher = history.NewFetcher(history.FetcherOptions{
			ListingURL: cfg.History.ListingURL,
			RawBaseURL: cfg.History.RawBaseURL,
		})
	}
	ttl := time.Duration(cfg.History.TTLHours) * time.Hour
	return history.NewCorpus(cfg.History.CacheDir, ttl, fetcher)
}

func initEngine() (*quality.Engine, error) {
	if cfg.Quality.EvidenceFile == "" {
		return quality.Default(), nil
	}
	return quality.LoadEvidence(cfg.Quality.EvidenceFile)
}
