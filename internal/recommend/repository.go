package recommend

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/mmcdole/tunescout/internal/config"
	"github.com/mmcdole/tunescout/internal/domain"
)

// NewRepository builds the recommendation repository described by cfg.
// The HTTP client is wrapped in a circuit breaker unless it is disabled.
func NewRepository(cfg *config.Config, logger *slog.Logger) (domain.RecommendationRepository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Server.URL == "" {
		return nil, fmt.Errorf("server URL is required")
	}

	u, err := url.Parse(cfg.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL: %q", cfg.Server.URL)
	}

	client := NewClient(cfg.Server.URL, logger)
	if !cfg.Server.Breaker.Enabled {
		return client, nil
	}

	return NewBreakerClient(client, BreakerSettings{
		MaxFailures: cfg.Server.Breaker.MaxFailures,
		Cooldown:    cfg.Server.Breaker.Cooldown,
	}, logger), nil
}
