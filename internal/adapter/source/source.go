package source

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/tilawa/internal/adapter"
	"github.com/mmcdole/tilawa/internal/adapter/source/quran"
	"github.com/mmcdole/tilawa/internal/domain"
)

// Source bundles the content client with the token manager it authenticates through
type Source struct {
	Client *quran.Client
	Tokens *quran.TokenManager
}

// NewSource creates the content API client and its token manager.
// Tokens are cached in store.
func NewSource(cfg *adapter.Config, store domain.TokenStore, logger *slog.Logger) (*Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("content API URL is required")
	}
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("%w: client id and secret are required", domain.ErrCredentials)
	}

	tokens := quran.NewTokenManager(cfg.API.AuthURL, cfg.API.ClientID, cfg.API.ClientSecret, store, logger)
	client := quran.NewClient(cfg.API.BaseURL, cfg.API.ClientID, tokens, quran.ContentOptions{
		Language:     cfg.Content.Language,
		Translations: cfg.Content.Translations,
		Words:        cfg.Content.Words,
	}, cfg.API.Timeout, logger)

	return &Source{Client: client, Tokens: tokens}, nil
}
