package inat

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tphakala/misid-go/internal/conf"
)

// FetchOptions control a paginated observation fetch.
type FetchOptions struct {
	// TotalCount overrides the number of observations to retrieve.
	// Zero means look it up with ObservationCount.
	TotalCount int
	// PageSize overrides the configured page size. It is clamped to
	// the remote maximum.
	PageSize int
	// StartPage is the zero-based page index to resume from after a
	// failed fetch. Pages before it are skipped.
	StartPage int
}

// FetchError reports a failed page request. It aborts the whole fetch:
// no partial results are returned and no retry is attempted. The page
// index lets the caller resume with FetchOptions.StartPage.
type FetchError struct {
	TaxonID int64
	Page    int // zero-based page index
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("observation fetch for taxon %d failed on page %d: %v", e.TaxonID, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchObservations retrieves the identified, research-grade
// observations of a taxon across all pages.
//
// Pages are requested strictly sequentially in increasing index order,
// and the configured waiter runs after every request including the
// last, so the spacing policy is uniform. A failed page aborts the
// fetch with a *FetchError carrying the page index.
func (c *Client) FetchObservations(ctx context.Context, taxonID int64, opts FetchOptions) ([]Observation, error) {
	total := opts.TotalCount
	if total == 0 {
		count, err := c.ObservationCount(ctx, taxonID)
		if err != nil {
			return nil, err
		}
		total = count
	}
	if total <= 0 {
		return []Observation{}, nil
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = c.config.PageSize
	}
	pageSize = min(pageSize, conf.MaxPageSize)

	pageCount := (total + pageSize - 1) / pageSize

	logger.Info("starting observation fetch",
		"taxon_id", taxonID,
		"total", total,
		"page_size", pageSize,
		"pages", pageCount,
		"start_page", opts.StartPage)

	start := time.Now()
	observations := make([]Observation, 0, total)

	for idx := opts.StartPage; idx < pageCount; idx++ {
		perPage := min(pageSize, total-idx*pageSize)

		query := url.Values{
			"taxon_id":      []string{strconv.FormatInt(taxonID, 10)},
			"per_page":      []string{strconv.Itoa(perPage)},
			"page":          []string{strconv.Itoa(idx + 1)},
			"identified":    []string{"true"},
			"quality_grade": []string{"research"},
		}

		var result page[Observation]
		if err := c.get(ctx, "/observations", query, &result); err != nil {
			return nil, &FetchError{TaxonID: taxonID, Page: idx, Err: err}
		}

		observations = append(observations, result.Results...)

		logger.Debug("observation page fetched",
			"taxon_id", taxonID,
			"page", idx+1,
			"pages", pageCount,
			"received", len(result.Results))

		if err := c.waiter.Wait(ctx); err != nil {
			return nil, &FetchError{TaxonID: taxonID, Page: idx, Err: err}
		}
	}

	logger.Info("observation fetch complete",
		"taxon_id", taxonID,
		"observations", len(observations),
		"pages", pageCount,
		"duration_ms", time.Since(start).Milliseconds())

	return observations, nil
}

// SimilarSpecies retrieves the server-side aggregation of taxa that
// have been attached to observations of the focal taxon, with
// frequencies.
func (c *Client) SimilarSpecies(ctx context.Context, taxonID int64) ([]SpeciesCount, error) {
	query := url.Values{
		"taxon_id": []string{strconv.FormatInt(taxonID, 10)},
	}

	var result page[SpeciesCount]
	if err := c.get(ctx, "/identifications/similar_species", query, &result); err != nil {
		return nil, err
	}

	logger.Debug("similar species fetched",
		"taxon_id", taxonID,
		"entries", len(result.Results))

	return result.Results, nil
}
