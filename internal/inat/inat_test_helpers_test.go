package inat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

// countingWaiter records Wait calls instead of sleeping, so paginated
// fetch tests run without real wall-clock waits.
type countingWaiter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (w *countingWaiter) Wait(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	return w.err
}

func (w *countingWaiter) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// setupTestClient creates a client with a counting waiter and httpmock
// installed on its transport.
func setupTestClient(t *testing.T, opts ...func(*Config)) (*Client, *countingWaiter) {
	t.Helper()

	waiter := &countingWaiter{}
	config := Config{
		BaseURL:  "https://api.inaturalist.org/v1",
		Timeout:  5 * time.Second,
		PageSize: 200,
		CacheTTL: time.Hour,
		Waiter:   waiter,
	}
	for _, opt := range opts {
		opt(&config)
	}

	client, err := NewClient(config)
	require.NoError(t, err)

	httpmock.ActivateNonDefault(client.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	return client, waiter
}

// taxonJSON renders a single taxon record.
func taxonJSON(id int64, name string, observationsCount int) string {
	return fmt.Sprintf(`{"id": %d, "name": %q, "rank": "species", "observations_count": %d}`, id, name, observationsCount)
}

// taxaResponse wraps taxon records in the standard results envelope.
func taxaResponse(taxa ...string) string {
	return fmt.Sprintf(`{"total_results": %d, "page": 1, "per_page": 30, "results": [%s]}`,
		len(taxa), strings.Join(taxa, ","))
}

// observationJSON renders an observation with the given identification
// taxon names.
func observationJSON(id int64, names ...string) string {
	idents := make([]string, 0, len(names))
	for _, name := range names {
		idents = append(idents, fmt.Sprintf(`{"taxon": {"id": 0, "name": %q}}`, name))
	}
	return fmt.Sprintf(`{"id": %d, "quality_grade": "research", "identifications": [%s]}`,
		id, strings.Join(idents, ","))
}

// observationsResponse wraps observation records in the results envelope.
func observationsResponse(total, pageNum, perPage int, observations ...string) string {
	return fmt.Sprintf(`{"total_results": %d, "page": %d, "per_page": %d, "results": [%s]}`,
		total, pageNum, perPage, strings.Join(observations, ","))
}

// registerTaxonSearchResponder mocks GET /taxa free-text search.
func registerTaxonSearchResponder(t *testing.T, body string) {
	t.Helper()
	httpmock.RegisterResponder("GET", `=~^https://api\.inaturalist\.org/v1/taxa\?`,
		httpmock.NewStringResponder(200, body))
}

// registerTaxonByIDResponder mocks GET /taxa/{id}.
func registerTaxonByIDResponder(t *testing.T, id int64, status int, body string) {
	t.Helper()
	httpmock.RegisterResponder("GET", fmt.Sprintf("https://api.inaturalist.org/v1/taxa/%d", id),
		httpmock.NewStringResponder(status, body))
}
