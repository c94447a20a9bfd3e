package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"prospero-server/internal/shared/config"
	"prospero-server/internal/shared/errors"
)

const maxCorpusBytes = 4 << 20

// HTTPSource fetches a plain text corpus over HTTP. When a token URL is
// configured requests are authorized with the OAuth2 client credentials
// grant.
type HTTPSource struct {
	url    string
	oauth  *clientcredentials.Config
	client *http.Client
	logger *slog.Logger
}

func NewHTTPSource(cfg config.CorpusConfig) *HTTPSource {
	s := &HTTPSource{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: slog.With("component", "corpus", "source", "http"),
	}

	if cfg.TokenURL != "" {
		s.oauth = &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
	}

	return s
}

func (s *HTTPSource) Name() string { return "http:" + s.url }

func (s *HTTPSource) Load(ctx context.Context) ([]string, error) {
	logger := s.logger.With("operation", "Load", "url", s.url)

	client := s.client
	if s.oauth != nil {
		tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, s.client)
		client = s.oauth.Client(tokenCtx)
		client.Timeout = s.client.Timeout
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.WrapValidation("invalid corpus URL", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("Corpus request failed", "error", err)
		return nil, errors.WrapExternal("failed to fetch corpus", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("Corpus endpoint returned error", "status", resp.StatusCode)
		return nil, errors.WrapExternal("failed to fetch corpus", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	names, err := Parse(io.LimitReader(resp.Body, maxCorpusBytes))
	if err != nil {
		return nil, errors.WrapExternal("failed to read corpus", err)
	}

	logger.Info("Corpus fetched", "names", len(names))
	return names, nil
}
