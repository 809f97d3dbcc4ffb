// Package rights is the client for the external rights-management service
// that mints content IDs, quotes per-source license prices, and issues access
// tokens.
package rights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/utils"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      *utils.RetryConfig
}

func CreateClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		retry:      utils.DefaultRetryConfig(),
	}
}

type registerRequest struct {
	Query      string   `json:"query"`
	SourceIDs  []string `json:"source_ids"`
	PriceCents int64    `json:"price_cents"`
}

type registerResponse struct {
	ContentID string `json:"content_id"`
}

// Register asks the rights service to mint a content ID for the artifact.
// The response is validated field-by-field; a missing content_id is a hard
// registration failure, never coerced to a substitute value.
func (c *Client) Register(ctx context.Context, query string, sourceIDs []string, priceCents int64) (string, error) {
	var contentID string

	err := utils.Retry(ctx, c.retry, func() error {
		var resp registerResponse
		if err := c.post(ctx, "/v1/content", &registerRequest{
			Query:      query,
			SourceIDs:  sourceIDs,
			PriceCents: priceCents,
		}, &resp, utils.ErrRegistrationFailed); err != nil {
			return err
		}

		if resp.ContentID == "" {
			return fmt.Errorf("%w: response missing content_id", utils.ErrRegistrationFailed)
		}

		contentID = resp.ContentID
		return nil
	})
	if err != nil {
		return "", err
	}
	return contentID, nil
}

type quoteResponse struct {
	PriceCents *int64 `json:"price_cents"`
}

// Quote returns the license price for one source at the given tier.
func (c *Client) Quote(ctx context.Context, sourceID string, tier models.LicenseTier) (int64, error) {
	var price int64

	err := utils.Retry(ctx, c.retry, func() error {
		var resp quoteResponse
		path := fmt.Sprintf("/v1/sources/%s/quote?tier=%s", sourceID, tier)
		if err := c.get(ctx, path, &resp, utils.ErrPricingUnavailable); err != nil {
			return err
		}

		if resp.PriceCents == nil || *resp.PriceCents < 0 {
			return fmt.Errorf("%w: quote response missing price_cents", utils.ErrPricingUnavailable)
		}

		price = *resp.PriceCents
		return nil
	})
	if err != nil {
		return 0, err
	}
	return price, nil
}

type mintTokenRequest struct {
	SourceID string `json:"source_id"`
	Tier     string `json:"tier"`
}

type mintTokenResponse struct {
	Token string `json:"token"`
}

// MintToken issues an access token for a purchased source. Only called after
// a successful charge.
func (c *Client) MintToken(ctx context.Context, sourceID string, tier models.LicenseTier) (string, error) {
	var token string

	err := utils.Retry(ctx, c.retry, func() error {
		var resp mintTokenResponse
		if err := c.post(ctx, "/v1/tokens", &mintTokenRequest{
			SourceID: sourceID,
			Tier:     string(tier),
		}, &resp, utils.ErrProviderUnavailable); err != nil {
			return err
		}

		if resp.Token == "" {
			return fmt.Errorf("%w: token response missing token", utils.ErrProviderUnavailable)
		}

		token = resp.Token
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Ping probes the rights service health endpoint; used by the health
// endpoint, so it does not retry.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: rights service returned %d", utils.ErrProviderUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}, unavailable error) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out, unavailable)
}

func (c *Client) get(ctx context.Context, path string, out interface{}, unavailable error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, out, unavailable)
}

// do executes the request and classifies the outcome: transport errors, 5xx
// and 429 carry the caller's transient class; other non-2xx statuses are
// fatal rejections.
func (c *Client) do(req *http.Request, out interface{}, unavailable error) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", unavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: malformed response body: %v", unavailable, err)
		}
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: rights service returned %d", unavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: rights service returned %d", utils.ErrUpstreamRejected, resp.StatusCode)
	}
}
