package inat

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/misid-go/internal/conf"
	"github.com/tphakala/misid-go/internal/errors"
	"github.com/tphakala/misid-go/internal/logging"
)

// Package-level logger specific to the inat service. It starts out
// discarded and is upgraded to a rotated file logger by InitFileLogger
// once configuration is available.
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
	loggerMu        sync.Mutex
)

func init() {
	serviceLevelVar.Set(slog.LevelInfo)
	logger = slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})).With("service", "inat")
	closeLogger = func() error { return nil }
}

// InitFileLogger switches the service logger to a rotated file under
// the configured log directory. Call once at startup after settings
// are loaded.
func InitFileLogger() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	settings := conf.Setting()
	if !settings.Log.Enabled {
		return nil
	}
	if settings.Debug {
		serviceLevelVar.Set(slog.LevelDebug)
	}

	logFilePath := filepath.Join(settings.Log.Path, "inat.log")
	fileLogger, closer, err := logging.NewFileLogger(logFilePath, "inat", serviceLevelVar)
	if err != nil {
		return errors.Newf("failed to initialize inat file logger: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", logFilePath).
			Component("inat").
			Build()
	}

	logger = fileLogger
	closeLogger = closer
	return nil
}

// CloseLogger closes the service log file if one was opened.
func CloseLogger() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	return closeLogger()
}

// Client provides methods for interacting with the iNaturalist API
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache
	waiter     Waiter

	// Metrics
	metrics struct {
		apiCalls    int64
		apiErrors   int64
		cacheHits   int64
		cacheMisses int64
		mu          sync.RWMutex
	}
}

// NewClient creates a new iNaturalist API client
func NewClient(config Config) (*Client, error) {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.PageSize == 0 {
		config.PageSize = defaults.PageSize
	}
	if config.PageSize > conf.MaxPageSize {
		config.PageSize = conf.MaxPageSize
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	waiter := config.Waiter
	if waiter == nil {
		if config.Delay == 0 {
			config.Delay = defaults.Delay
		}
		if config.Delay < conf.MinDelay {
			return nil, errors.Newf("request delay %s is below the minimum %s required by the API terms of use", config.Delay, conf.MinDelay).
				Category(errors.CategoryConfiguration).
				Context("delay_ms", config.Delay.Milliseconds()).
				Component("inat").
				Build()
		}
		waiter = NewDelayWaiter(config.Delay)
	}

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache:  cache.New(config.CacheTTL, config.CacheTTL*2),
		waiter: waiter,
	}

	logger.Info("iNaturalist client initialized",
		"base_url", config.BaseURL,
		"page_size", config.PageSize,
		"delay_ms", config.Delay.Milliseconds(),
		"cache_ttl", config.CacheTTL)

	return client, nil
}

// HTTPClient exposes the underlying HTTP client, used by tests to
// install mock transports.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// ClearCache clears all cached taxon data
func (c *Client) ClearCache() {
	c.cache.Flush()
	logger.Info("inat taxon cache cleared")
}

// Metrics represents client performance counters
type Metrics struct {
	APICalls    int64 `json:"api_calls"`
	APIErrors   int64 `json:"api_errors"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
}

// GetMetrics returns current client counters
func (c *Client) GetMetrics() Metrics {
	c.metrics.mu.RLock()
	defer c.metrics.mu.RUnlock()

	return Metrics{
		APICalls:    c.metrics.apiCalls,
		APIErrors:   c.metrics.apiErrors,
		CacheHits:   c.metrics.cacheHits,
		CacheMisses: c.metrics.cacheMisses,
	}
}

// get performs a GET request against an API path and decodes the JSON
// response into result. It does not apply inter-request spacing, that
// is owned by the paginated fetch loop.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	requestURL := c.config.BaseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	c.metrics.mu.Lock()
	c.metrics.apiCalls++
	c.metrics.mu.Unlock()

	start := time.Now()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		c.countError()
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Component("inat").
			Build()
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.countError()
		logger.Error("iNaturalist API request failed",
			"error", err,
			"url", requestURL)
		return errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Component("inat").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.countError()
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Context("status_code", resp.StatusCode).
			Component("inat").
			Build()
	}

	if resp.StatusCode >= 400 {
		c.countError()

		var apiErr APIError
		if err := json.Unmarshal(bodyBytes, &apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(bodyBytes))
		}
		apiErr.Status = resp.StatusCode

		logger.Warn("iNaturalist API error response",
			"status_code", resp.StatusCode,
			"url", requestURL,
			"detail", apiErr.Message)

		return errors.Newf("iNaturalist API error (status %d): %s", resp.StatusCode, apiErr.Message).
			Category(getErrorCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("url", requestURL).
			Component("inat").
			Build()
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			c.countError()

			responsePreview := string(bodyBytes)
			if len(responsePreview) > 500 {
				responsePreview = responsePreview[:500] + "..."
			}
			logger.Error("failed to parse iNaturalist API response",
				"error", err,
				"url", requestURL,
				"response_size", len(bodyBytes),
				"response_preview", responsePreview)

			return errors.Newf("failed to parse response: %w", err).
				Category(errors.CategoryFileParsing).
				Context("url", requestURL).
				Context("response_size", len(bodyBytes)).
				Component("inat").
				Build()
		}
	}

	logger.Debug("iNaturalist API request successful",
		"url", requestURL,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_size", len(bodyBytes))

	return nil
}

func (c *Client) countError() {
	c.metrics.mu.Lock()
	c.metrics.apiErrors++
	c.metrics.mu.Unlock()
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusNotFound:
		return errors.CategoryNotFound
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	case http.StatusUnprocessableEntity:
		return errors.CategoryValidation
	default:
		return errors.CategoryNetwork
	}
}
