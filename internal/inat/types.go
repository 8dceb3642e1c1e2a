// Package inat provides a client for the iNaturalist API v1
package inat

import (
	"time"

	"github.com/tphakala/misid-go/internal/conf"
)

// Taxon is a taxon record as returned by the taxa endpoints.
// The ID is the stable, remote-assigned identifier; the name is the
// scientific name.
type Taxon struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Rank              string `json:"rank,omitempty"`
	ObservationsCount int    `json:"observations_count"`
}

// Identification is a single identification event on an observation.
// Only the asserted taxon is retained, timestamps and identifier
// identity are not decoded.
type Identification struct {
	Taxon Taxon `json:"taxon"`
}

// Observation is a user-submitted record with its identification events
// in submission order.
type Observation struct {
	ID              int64            `json:"id"`
	QualityGrade    string           `json:"quality_grade"`
	Identifications []Identification `json:"identifications"`
}

// SpeciesCount is one entry of the similar-species endpoint: a taxon
// and how often it was attached to observations of the focal taxon.
type SpeciesCount struct {
	Count int   `json:"count"`
	Taxon Taxon `json:"taxon"`
}

// page is the envelope every listing endpoint wraps its results in.
type page[T any] struct {
	TotalResults int `json:"total_results"`
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	Results      []T `json:"results"`
}

// Config holds configuration for the iNaturalist client
type Config struct {
	BaseURL   string        // API base URL
	Timeout   time.Duration // per-request timeout
	Delay     time.Duration // spacing between paginated requests
	PageSize  int           // observations per page
	CacheTTL  time.Duration // taxon lookup cache lifetime
	UserAgent string        // User-Agent header value
	Waiter    Waiter        // optional, replaces the delay-based waiter
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://api.inaturalist.org/v1",
		Timeout:   30 * time.Second,
		Delay:     conf.MinDelay,
		PageSize:  conf.MaxPageSize,
		CacheTTL:  24 * time.Hour, // taxon records rarely change
		UserAgent: "misid-go (github.com/tphakala/misid-go)",
	}
}

// ConfigFromSettings builds a client Config from the application settings.
func ConfigFromSettings(settings *conf.Settings) Config {
	config := DefaultConfig()
	if settings == nil {
		return config
	}
	if settings.INat.BaseURL != "" {
		config.BaseURL = settings.INat.BaseURL
	}
	if settings.INat.Timeout > 0 {
		config.Timeout = settings.INat.Timeout
	}
	if settings.INat.Delay > 0 {
		config.Delay = settings.INat.Delay
	}
	if settings.INat.PageSize > 0 {
		config.PageSize = settings.INat.PageSize
	}
	if settings.INat.CacheTTL > 0 {
		config.CacheTTL = settings.INat.CacheTTL
	}
	return config
}

// APIError represents an iNaturalist API error response
type APIError struct {
	Message string `json:"error"`
	Status  int    `json:"status"`
}

func (e *APIError) Error() string {
	return e.Message
}
