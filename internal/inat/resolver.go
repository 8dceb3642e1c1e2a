package inat

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/misid-go/internal/errors"
)

// ResolveID resolves a scientific name to its remote taxon ID using the
// free-text taxon search. The first search result is taken as
// authoritative, which is best-effort only: an ambiguous or misspelled
// name resolves silently to whatever the API ranks first.
func (c *Client) ResolveID(ctx context.Context, name string) (int64, error) {
	taxon, err := c.taxonByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return taxon.ID, nil
}

// ResolveName is the inverse lookup: taxon ID to scientific name.
func (c *Client) ResolveName(ctx context.Context, id int64) (string, error) {
	taxon, err := c.TaxonByID(ctx, id)
	if err != nil {
		return "", err
	}
	return taxon.Name, nil
}

// ObservationCount returns the remote-reported total observation count
// for a taxon. The fetcher uses it to size pagination when no count
// override is given.
func (c *Client) ObservationCount(ctx context.Context, id int64) (int, error) {
	taxon, err := c.TaxonByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return taxon.ObservationsCount, nil
}

// ResolveIDs resolves a list of names, position-preserving. It fails on
// the first name that does not resolve.
func (c *Client) ResolveIDs(ctx context.Context, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := c.ResolveID(ctx, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ResolveNames resolves a list of taxon IDs, position-preserving. It
// fails on the first ID that does not resolve.
func (c *Client) ResolveNames(ctx context.Context, ids []int64) ([]string, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name, err := c.ResolveName(ctx, id)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// taxonByName performs the free-text search behind ResolveID.
func (c *Client) taxonByName(ctx context.Context, name string) (*Taxon, error) {
	cacheKey := "taxon:name:" + strings.ToLower(name)
	if cached, found := c.cache.Get(cacheKey); found {
		if taxon, ok := cached.(*Taxon); ok {
			c.countCacheHit()
			return taxon, nil
		}
	}
	c.countCacheMiss()

	var result page[Taxon]
	err := c.get(ctx, "/taxa", url.Values{"q": []string{name}}, &result)
	if err != nil {
		return nil, err
	}

	if len(result.Results) == 0 {
		return nil, errors.Newf("taxon not found: %s", name).
			Category(errors.CategoryNotFound).
			Context("taxon_name", name).
			Component("inat").
			Build()
	}

	taxon := &result.Results[0]
	c.cacheTaxon(taxon)
	// The matched name can differ from the query, cache the query too
	c.cache.Set(cacheKey, taxon, cache.DefaultExpiration)

	logger.Debug("taxon name resolved",
		"query", name,
		"taxon_id", taxon.ID,
		"matched_name", taxon.Name,
		"candidates", len(result.Results))

	return taxon, nil
}

// TaxonByID fetches the full taxon record for an ID.
func (c *Client) TaxonByID(ctx context.Context, id int64) (*Taxon, error) {
	cacheKey := "taxon:id:" + strconv.FormatInt(id, 10)
	if cached, found := c.cache.Get(cacheKey); found {
		if taxon, ok := cached.(*Taxon); ok {
			c.countCacheHit()
			return taxon, nil
		}
	}
	c.countCacheMiss()

	var result page[Taxon]
	err := c.get(ctx, "/taxa/"+strconv.FormatInt(id, 10), nil, &result)
	if err != nil {
		if errors.IsCategory(err, errors.CategoryNotFound) {
			return nil, notFoundByID(id)
		}
		return nil, err
	}

	if len(result.Results) == 0 {
		return nil, notFoundByID(id)
	}

	taxon := &result.Results[0]
	c.cacheTaxon(taxon)

	return taxon, nil
}

func notFoundByID(id int64) error {
	return errors.Newf("taxon not found: %d", id).
		Category(errors.CategoryNotFound).
		Context("taxon_id", id).
		Component("inat").
		Build()
}

// cacheTaxon stores a taxon under both its name and ID keys.
func (c *Client) cacheTaxon(taxon *Taxon) {
	c.cache.Set("taxon:name:"+strings.ToLower(taxon.Name), taxon, cache.DefaultExpiration)
	c.cache.Set("taxon:id:"+strconv.FormatInt(taxon.ID, 10), taxon, cache.DefaultExpiration)
}

func (c *Client) countCacheHit() {
	c.metrics.mu.Lock()
	c.metrics.cacheHits++
	c.metrics.mu.Unlock()
}

func (c *Client) countCacheMiss() {
	c.metrics.mu.Lock()
	c.metrics.cacheMisses++
	c.metrics.mu.Unlock()
}
