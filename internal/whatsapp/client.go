package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/service"
)

// Config holds the gateway settings for any of the supported providers.
type Config struct {
	Provider   string
	APIURL     string
	APIKey     string
	InstanceID string
	Token      string
	Timeout    time.Duration
}

// NewClient builds the messaging client for the configured provider.
func NewClient(cfg Config) (service.MessagingClient, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("%w: api url", common.ErrMessagingNotConfigured)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(cfg.APIURL, "/")
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case "evolution":
		if cfg.APIKey == "" || cfg.InstanceID == "" {
			return nil, fmt.Errorf("%w: evolution needs api key and instance id", common.ErrMessagingNotConfigured)
		}
		return &EvolutionClient{
			baseURL:    baseURL,
			apiKey:     cfg.APIKey,
			instanceID: cfg.InstanceID,
			httpClient: httpClient,
		}, nil
	case "business":
		if cfg.Token == "" {
			return nil, fmt.Errorf("%w: business needs an access token", common.ErrMessagingNotConfigured)
		}
		return &BusinessClient{
			baseURL:    baseURL,
			token:      cfg.Token,
			httpClient: httpClient,
		}, nil
	case "generic":
		if cfg.Token == "" {
			return nil, fmt.Errorf("%w: generic needs an access token", common.ErrMessagingNotConfigured)
		}
		return &GenericClient{
			baseURL:    baseURL,
			token:      cfg.Token,
			httpClient: httpClient,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", common.ErrMessagingNotConfigured, cfg.Provider)
	}
}

// postJSON sends a JSON payload and returns the raw response body for
// non-2xx diagnostics.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return resp.StatusCode, raw, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func sendFailure(err error) service.SendResult {
	return service.SendResult{Success: false, Error: err.Error()}
}

func statusFailure(err error) service.InstanceStatus {
	return service.InstanceStatus{Success: false, Error: err.Error()}
}
