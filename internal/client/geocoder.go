package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/crushapp/crush-server/internal/cache"
	"github.com/crushapp/crush-server/internal/config"
)

const (
	geocodeTimeout = 5 * time.Second

	// Nominatim's usage policy allows at most one request per second.
	nominatimMinInterval = time.Second
)

// Geocoder resolves a coordinate into a human-readable place name
// ("City, Region"). Failures return an error the caller logs and ignores;
// a missing place name is never fatal to a location update.
type Geocoder interface {
	LocationName(ctx context.Context, lat, lon float64) (string, error)
}

// NominatimClient calls the OpenStreetMap reverse-geocoding API through a
// Redis cache so repeated lookups in the same ~5km cell cost nothing.
type NominatimClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	cache     *cache.RedisCache
	limiter   chan struct{}
}

func NewNominatimClient(cfg *config.Config, redisCache *cache.RedisCache) *NominatimClient {
	c := &NominatimClient{
		baseURL:   cfg.Geocode.BaseURL,
		userAgent: cfg.Geocode.UserAgent,
		http:      &http.Client{Timeout: geocodeTimeout},
		cache:     redisCache,
		limiter:   make(chan struct{}, 1),
	}
	c.limiter <- struct{}{}
	go c.refillLoop()
	return c
}

// refillLoop grants one API call per second.
func (c *NominatimClient) refillLoop() {
	ticker := time.NewTicker(nominatimMinInterval)
	defer ticker.Stop()
	for range ticker.C {
		select {
		case c.limiter <- struct{}{}:
		default:
		}
	}
}

type nominatimResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
	} `json:"address"`
}

func (c *NominatimClient) LocationName(ctx context.Context, lat, lon float64) (string, error) {
	if name, ok, err := c.cache.GetGeocode(ctx, lat, lon); err == nil && ok {
		return name, nil
	}

	select {
	case <-c.limiter:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "json")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var out nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("nominatim response decode failed: %w", err)
	}

	name := placeName(out)
	if name == "" {
		return "", fmt.Errorf("nominatim response had no usable address")
	}

	_ = c.cache.SetGeocode(ctx, lat, lon, name)
	return name, nil
}

// placeName picks the most specific locality available, with the state
// appended when present.
func placeName(r nominatimResponse) string {
	a := r.Address
	city := a.City
	if city == "" {
		city = a.Town
	}
	if city == "" {
		city = a.Village
	}
	if city == "" {
		city = a.County
	}
	if city == "" {
		return ""
	}
	if a.State != "" {
		return city + ", " + a.State
	}
	return city
}
