package inat

import (
	"context"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/misid-go/internal/errors"
)

func TestResolveID_FirstMatchWins(t *testing.T) {
	client, _ := setupTestClient(t)
	// Two candidates: the first one is taken as authoritative
	registerTaxonSearchResponder(t, taxaResponse(
		taxonJSON(54858, "Rumex", 45000),
		taxonJSON(99999, "Rumexia", 3),
	))

	id, err := client.ResolveID(context.Background(), "Rumex")

	require.NoError(t, err)
	assert.Equal(t, int64(54858), id)
}

func TestResolveID_NotFound(t *testing.T) {
	client, _ := setupTestClient(t)
	registerTaxonSearchResponder(t, taxaResponse())

	_, err := client.ResolveID(context.Background(), "Zzzznotarealtaxon")

	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestResolveID_CachesTaxon(t *testing.T) {
	client, _ := setupTestClient(t)
	registerTaxonSearchResponder(t, taxaResponse(taxonJSON(54858, "Rumex", 45000)))

	first, err := client.ResolveID(context.Background(), "Rumex")
	require.NoError(t, err)

	second, err := client.ResolveID(context.Background(), "Rumex")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "second resolution must hit the cache")

	// The search result also satisfies ID lookups without a request
	name, err := client.ResolveName(context.Background(), 54858)
	require.NoError(t, err)
	assert.Equal(t, "Rumex", name)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestResolveName(t *testing.T) {
	client, _ := setupTestClient(t)
	registerTaxonByIDResponder(t, 54858, 200, taxaResponse(taxonJSON(54858, "Rumex", 45000)))

	name, err := client.ResolveName(context.Background(), 54858)

	require.NoError(t, err)
	assert.Equal(t, "Rumex", name)
}

func TestResolveName_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http_404", 404, `{"error": "Not Found", "status": 404}`},
		{"empty_results", 200, taxaResponse()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := setupTestClient(t)
			registerTaxonByIDResponder(t, 123456789, tt.status, tt.body)

			_, err := client.ResolveName(context.Background(), 123456789)

			require.Error(t, err)
			assert.True(t, errors.IsNotFound(err))
		})
	}
}

func TestObservationCount(t *testing.T) {
	client, _ := setupTestClient(t)
	registerTaxonByIDResponder(t, 54858, 200, taxaResponse(taxonJSON(54858, "Rumex", 450)))

	count, err := client.ObservationCount(context.Background(), 54858)

	require.NoError(t, err)
	assert.Equal(t, 450, count)
}

func TestResolveIDs_PositionPreserving(t *testing.T) {
	client, _ := setupTestClient(t)
	httpmock.RegisterResponder("GET", `=~^https://api\.inaturalist\.org/v1/taxa\?.*Rumex`,
		httpmock.NewStringResponder(200, taxaResponse(taxonJSON(54858, "Rumex", 45000))))
	httpmock.RegisterResponder("GET", `=~^https://api\.inaturalist\.org/v1/taxa\?.*Quercus`,
		httpmock.NewStringResponder(200, taxaResponse(taxonJSON(47851, "Quercus", 90000))))

	ids, err := client.ResolveIDs(context.Background(), []string{"Rumex", "Quercus"})

	require.NoError(t, err)
	assert.Equal(t, []int64{54858, 47851}, ids)
}

func TestResolveIDs_FailFast(t *testing.T) {
	client, _ := setupTestClient(t)
	httpmock.RegisterResponder("GET", `=~^https://api\.inaturalist\.org/v1/taxa\?.*Rumex`,
		httpmock.NewStringResponder(200, taxaResponse(taxonJSON(54858, "Rumex", 45000))))
	httpmock.RegisterResponder("GET", `=~^https://api\.inaturalist\.org/v1/taxa\?.*Zzzz`,
		httpmock.NewStringResponder(200, taxaResponse()))

	ids, err := client.ResolveIDs(context.Background(), []string{"Rumex", "Zzzznotarealtaxon", "Quercus"})

	require.Error(t, err)
	assert.Nil(t, ids, "no partial batch result")
	assert.True(t, errors.IsNotFound(err))
	// The item after the failure is never requested
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestResolveNames_PositionPreserving(t *testing.T) {
	client, _ := setupTestClient(t)
	registerTaxonByIDResponder(t, 54858, 200, taxaResponse(taxonJSON(54858, "Rumex", 45000)))
	registerTaxonByIDResponder(t, 47851, 200, taxaResponse(taxonJSON(47851, "Quercus", 90000)))

	names, err := client.ResolveNames(context.Background(), []int64{47851, 54858})

	require.NoError(t, err)
	assert.Equal(t, []string{"Quercus", "Rumex"}, names)
}
