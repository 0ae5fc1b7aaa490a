// Package weather fetches current conditions from open-meteo.
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"aisha/internal/config"
	"aisha/internal/logger"
)

// Current mirrors the "current_weather" object of the forecast API.
type Current struct {
	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windspeed"`
	WindDirection float64 `json:"winddirection"`
	WeatherCode   int     `json:"weathercode"`
	Time          string  `json:"time"`
}

type forecastResponse struct {
	CurrentWeather *Current `json:"current_weather"`
}

// Client queries one fixed location.
type Client struct {
	baseURL    string
	latitude   float64
	longitude  float64
	httpClient *http.Client
}

// NewClient creates a Client from the weather settings.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.WeatherURL,
		latitude:   cfg.Latitude,
		longitude:  cfg.Longitude,
		httpClient: &http.Client{Timeout: cfg.WeatherTimeout},
	}
}

// Current returns the current conditions.
func (c *Client) Current(ctx context.Context) (Current, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(c.latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(c.longitude, 'f', -1, 64))
	params.Set("current_weather", "true")
	params.Set("wind_speed_unit", "ms")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Current{}, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Current{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Current{}, fmt.Errorf("weather request failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Current{}, fmt.Errorf("failed to read weather response: %w", err)
	}

	var data forecastResponse
	if err := sonic.Unmarshal(body, &data); err != nil {
		return Current{}, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if data.CurrentWeather == nil {
		return Current{}, fmt.Errorf("weather response has no current_weather")
	}

	return *data.CurrentWeather, nil
}

// Fetcher is implemented by Client.
type Fetcher interface {
	Current(ctx context.Context) (Current, error)
}

// Refresher polls a Fetcher in the background and keeps the last good value.
type Refresher struct {
	mu       sync.RWMutex
	fetcher  Fetcher
	interval time.Duration
	latest   Current
	ok       bool
	logger   *logger.Logger
}

// NewRefresher creates a Refresher.
func NewRefresher(fetcher Fetcher, interval time.Duration, logger *logger.Logger) *Refresher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Refresher{fetcher: fetcher, interval: interval, logger: logger}
}

// Run fetches immediately and then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	current, err := r.fetcher.Current(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warning("Weather: %v", err)
		}
		return
	}

	r.mu.Lock()
	r.latest = current
	r.ok = true
	r.mu.Unlock()

	r.logger.Info("Weather updated: %.1f°C, wind %.1f m/s", current.Temperature, current.WindSpeed)
}

// Latest returns the last good value, false until the first success.
func (r *Refresher) Latest() (Current, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest, r.ok
}
