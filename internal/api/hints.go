package api

import (
	"context"
	"encoding/json"
	"fmt"
	"match-ledger/internal/config"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

// HintClient fetches affiliation hints from the community directory service.
type HintClient struct {
	baseURL     string
	apiKey      string
	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

type AffiliationsResponse struct {
	Status int `json:"status"`
	Data   struct {
		ExternalID   string   `json:"external_id"`
		Affiliations []string `json:"affiliations"`
	} `json:"data"`
}

func NewHintClient(cfg *config.Config) *HintClient {
	return &HintClient{
		baseURL: strings.TrimRight(cfg.HintAPIURL, "/"),
		apiKey:  cfg.HintAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         cfg.HintAPITimeout,
			WriteTimeout:        cfg.HintAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		rateLimit: RateLimitInfo{
			Limit:     60,
			Remaining: 60,
			Reset:     60,
			UpdatedAt: time.Now(),
		},
	}
}

func (c *HintClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

// rateLimitWait is how long the directory asked us to hold off, zero when
// requests are allowed.
func (c *HintClient) rateLimitWait(now time.Time) time.Duration {
	info := c.GetRateLimitInfo()
	if info.Remaining > 0 {
		return 0
	}
	resetAt := info.UpdatedAt.Add(time.Duration(info.Reset) * time.Second)
	if !now.Before(resetAt) {
		return 0
	}
	return resetAt.Sub(now)
}

func (c *HintClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// Hints returns the affiliations a member claims. A member the directory does
// not know claims nothing. Once the directory reports no remaining requests,
// calls fail without contacting it until the reset window passes.
func (c *HintClient) Hints(ctx context.Context, namespace, externalID string) ([]string, error) {
	if wait := c.rateLimitWait(time.Now()); wait > 0 {
		return nil, fmt.Errorf("rate limited by directory, retry in %s", wait.Round(time.Second))
	}

	u := fmt.Sprintf("%s/namespaces/%s/members/%s/affiliations", c.baseURL, url.PathEscape(namespace), url.PathEscape(externalID))
	resp, err := doRequest[AffiliationsResponse](ctx, c, u)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return resp.Data.Affiliations, nil
}

// doRequest decodes a JSON body into T. It returns nil, nil on 404.
func doRequest[T any](ctx context.Context, client *HintClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if client.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+client.apiKey)
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	client.updateRateLimit(resp)

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}
