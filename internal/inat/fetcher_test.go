package inat

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/misid-go/internal/errors"
)

// recordObservationRequests registers an observations responder that
// records each request's query values in arrival order and serves
// synthetic research-grade observations sized to per_page.
func recordObservationRequests(t *testing.T, total int) *[]url.Values {
	t.Helper()

	var mu sync.Mutex
	requests := &[]url.Values{}

	httpmock.RegisterResponder("GET", `=~^https://api\.inaturalist\.org/v1/observations`,
		func(req *http.Request) (*http.Response, error) {
			query := req.URL.Query()
			mu.Lock()
			*requests = append(*requests, query)
			mu.Unlock()

			perPage, _ := strconv.Atoi(query.Get("per_page"))
			pageNum, _ := strconv.Atoi(query.Get("page"))
			observations := make([]string, 0, perPage)
			for i := range perPage {
				observations = append(observations, observationJSON(int64(pageNum*1000+i), "Rumex"))
			}
			return httpmock.NewStringResponse(200,
				observationsResponse(total, pageNum, perPage, observations...)), nil
		})

	return requests
}

func TestFetchObservations_PaginationBounds(t *testing.T) {
	client, waiter := setupTestClient(t)
	requests := recordObservationRequests(t, 450)

	observations, err := client.FetchObservations(context.Background(), 54858, FetchOptions{TotalCount: 450})

	require.NoError(t, err)
	assert.Len(t, observations, 450)

	// ceil(450/200) = 3 pages of 200, 200, 50 in strictly increasing order
	require.Len(t, *requests, 3)
	wantPerPage := []string{"200", "200", "50"}
	for i, query := range *requests {
		assert.Equal(t, strconv.Itoa(i+1), query.Get("page"), "page index order")
		assert.Equal(t, wantPerPage[i], query.Get("per_page"))
		assert.Equal(t, "54858", query.Get("taxon_id"))
		assert.Equal(t, "true", query.Get("identified"))
		assert.Equal(t, "research", query.Get("quality_grade"))
	}

	// Uniform spacing policy: one wait per request, including the last
	assert.Equal(t, 3, waiter.Calls())
}

func TestFetchObservations_ExactPageBoundary(t *testing.T) {
	client, waiter := setupTestClient(t)
	requests := recordObservationRequests(t, 400)

	observations, err := client.FetchObservations(context.Background(), 1, FetchOptions{TotalCount: 400})

	require.NoError(t, err)
	assert.Len(t, observations, 400)
	// 400/200 divides evenly: exactly 2 requests, no degenerate zero-size page
	assert.Len(t, *requests, 2)
	assert.Equal(t, 2, waiter.Calls())
}

func TestFetchObservations_SinglePage(t *testing.T) {
	client, waiter := setupTestClient(t)
	requests := recordObservationRequests(t, 42)

	observations, err := client.FetchObservations(context.Background(), 1, FetchOptions{TotalCount: 42})

	require.NoError(t, err)
	assert.Len(t, observations, 42)
	require.Len(t, *requests, 1)
	assert.Equal(t, "42", (*requests)[0].Get("per_page"))
	assert.Equal(t, 1, waiter.Calls())
}

func TestFetchObservations_PageSizeClamped(t *testing.T) {
	client, _ := setupTestClient(t)
	requests := recordObservationRequests(t, 450)

	_, err := client.FetchObservations(context.Background(), 1, FetchOptions{TotalCount: 450, PageSize: 500})

	require.NoError(t, err)
	require.NotEmpty(t, *requests)
	assert.Equal(t, "200", (*requests)[0].Get("per_page"), "per_page must honor the remote ceiling")
}

func TestFetchObservations_CountLookupWhenNoOverride(t *testing.T) {
	client, _ := setupTestClient(t)
	registerTaxonByIDResponder(t, 54858, 200, taxaResponse(taxonJSON(54858, "Rumex", 42)))
	requests := recordObservationRequests(t, 42)

	observations, err := client.FetchObservations(context.Background(), 54858, FetchOptions{})

	require.NoError(t, err)
	assert.Len(t, observations, 42)
	require.Len(t, *requests, 1)
	assert.Equal(t, "42", (*requests)[0].Get("per_page"))
}

func TestFetchObservations_ZeroObservations(t *testing.T) {
	client, waiter := setupTestClient(t)
	registerTaxonByIDResponder(t, 7, 200, taxaResponse(taxonJSON(7, "Rarissimus", 0)))

	observations, err := client.FetchObservations(context.Background(), 7, FetchOptions{})

	require.NoError(t, err)
	assert.Empty(t, observations)
	assert.Equal(t, 0, waiter.Calls())
}

func TestFetchObservations_PageFailureAbortsFetch(t *testing.T) {
	client, _ := setupTestClient(t)

	httpmock.RegisterResponder("GET", `=~^https://api\.inaturalist\.org/v1/observations`,
		func(req *http.Request) (*http.Response, error) {
			query := req.URL.Query()
			if query.Get("page") == "2" {
				return httpmock.NewStringResponse(500, `{"error": "boom", "status": 500}`), nil
			}
			perPage, _ := strconv.Atoi(query.Get("per_page"))
			pageNum, _ := strconv.Atoi(query.Get("page"))
			observations := make([]string, 0, perPage)
			for i := range perPage {
				observations = append(observations, observationJSON(int64(pageNum*1000+i), "Rumex"))
			}
			return httpmock.NewStringResponse(200,
				observationsResponse(450, pageNum, perPage, observations...)), nil
		})

	observations, err := client.FetchObservations(context.Background(), 54858, FetchOptions{TotalCount: 450})

	require.Error(t, err)
	assert.Nil(t, observations, "no partial result on page failure")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 1, fetchErr.Page, "zero-based index of the failed page")
	assert.Equal(t, int64(54858), fetchErr.TaxonID)
}

func TestFetchObservations_MalformedPageAbortsFetch(t *testing.T) {
	client, _ := setupTestClient(t)

	httpmock.RegisterResponder("GET", `=~^https://api\.inaturalist\.org/v1/observations`,
		httpmock.NewStringResponder(200, `{not json`))

	observations, err := client.FetchObservations(context.Background(), 1, FetchOptions{TotalCount: 10})

	require.Error(t, err)
	assert.Nil(t, observations)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 0, fetchErr.Page)
	assert.True(t, errors.IsCategory(fetchErr.Err, errors.CategoryFileParsing))
}

func TestFetchObservations_WaiterErrorAbortsFetch(t *testing.T) {
	client, waiter := setupTestClient(t)
	waiter.err = context.Canceled
	recordObservationRequests(t, 450)

	observations, err := client.FetchObservations(context.Background(), 1, FetchOptions{TotalCount: 450})

	require.Error(t, err)
	assert.Nil(t, observations)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, waiter.Calls(), "fetch stops at the first interrupted wait")
}

func TestFetchObservations_ResumeFromStartPage(t *testing.T) {
	client, _ := setupTestClient(t)
	requests := recordObservationRequests(t, 450)

	observations, err := client.FetchObservations(context.Background(), 1, FetchOptions{TotalCount: 450, StartPage: 1})

	require.NoError(t, err)
	assert.Len(t, observations, 250)
	require.Len(t, *requests, 2)
	assert.Equal(t, "2", (*requests)[0].Get("page"))
	assert.Equal(t, "3", (*requests)[1].Get("page"))
}

func TestSimilarSpecies(t *testing.T) {
	client, _ := setupTestClient(t)

	httpmock.RegisterResponder("GET", `=~^https://api\.inaturalist\.org/v1/identifications/similar_species`,
		httpmock.NewStringResponder(200, `{
			"total_results": 2,
			"page": 1,
			"per_page": 30,
			"results": [
				{"count": 12, "taxon": {"id": 55401, "name": "Rumex crispus"}},
				{"count": 4, "taxon": {"id": 55402, "name": "Rumex obtusifolius"}}
			]
		}`))

	counts, err := client.SimilarSpecies(context.Background(), 54858)

	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, int64(55401), counts[0].Taxon.ID)
	assert.Equal(t, 12, counts[0].Count)
	assert.Equal(t, "Rumex obtusifolius", counts[1].Taxon.Name)
	assert.Equal(t, 4, counts[1].Count)
}
