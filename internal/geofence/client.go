package geofence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

// HTTPDoer defines the http.Client interface subset used by the client
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a caching client over the remote geofence directory. The zone
// list is cached until fetchedAt+ttl; point-context lookups are always live.
type Client struct {
	baseURL    string
	credential string
	ttl        time.Duration
	httpClient HTTPDoer

	mu        sync.Mutex
	zones     []models.Zone
	fetchedAt time.Time
}

// NewClient builds a geofence client. The credential may be empty; calls
// will then fail with ConfigurationError.
func NewClient(baseURL, credential string, ttl time.Duration, httpClient HTTPDoer) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		credential: credential,
		ttl:        ttl,
		httpClient: httpClient,
	}
}

// SetCredential replaces the credential and clears the cache
func (c *Client) SetCredential(credential string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = credential
	c.zones = nil
	c.fetchedAt = time.Time{}
}

// ClearCache drops the cached zone list, forcing a remote fetch on the next
// GetZones call
func (c *Client) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zones = nil
	c.fetchedAt = time.Time{}
}

// GetZones returns the zone list, serving the cache while it is fresh unless
// forceRefresh is set
func (c *Client) GetZones(ctx context.Context, forceRefresh bool) ([]models.Zone, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !forceRefresh && c.zones != nil && time.Now().Before(c.fetchedAt.Add(c.ttl)) {
		return c.zones, nil
	}

	body, err := c.get(ctx, "/zones")
	if err != nil {
		return nil, err
	}

	var zones []models.Zone
	if err := json.Unmarshal(body, &zones); err != nil {
		return nil, fmt.Errorf("failed to decode zone list: %w", err)
	}

	c.zones = zones
	c.fetchedAt = time.Now()
	return zones, nil
}

// ContextAt asks the remote service which zone contains the point. Always a
// live call; intended for low-frequency, high-precision checks. Returns nil
// when no zone contains the point.
func (c *Client) ContextAt(ctx context.Context, lat, lon float64) (*models.Zone, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	body, err := c.get(ctx, "/context?"+query.Encode())
	if err != nil {
		return nil, err
	}

	if len(body) == 0 || string(body) == "null" {
		return nil, nil
	}

	var zone models.Zone
	if err := json.Unmarshal(body, &zone); err != nil {
		return nil, fmt.Errorf("failed to decode zone context: %w", err)
	}
	if zone.ID == "" {
		return nil, nil
	}
	return &zone, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if strings.TrimSpace(c.credential) == "" {
		return nil, &ConfigurationError{Reason: "no credential configured"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Status: resp.StatusCode, Body: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{Status: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
