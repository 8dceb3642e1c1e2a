package confusion

import (
	"sort"
	"strconv"

	"github.com/tphakala/misid-go/internal/inat"
)

// Mode selects which identification events of a history count toward
// the confusion profile.
type Mode string

const (
	// ModeFullChain counts every taxon name anywhere in a history,
	// including the focal taxon itself. This treats the whole
	// identification chain as the confusion set for an observation.
	ModeFullChain Mode = "full-chain"
	// ModeFinalOnly counts only the last identification of each
	// history, i.e. the community's settled answer.
	ModeFinalOnly Mode = "final-only"
)

// Source records which remote signal a profile was built from.
type Source string

const (
	SourceHistories      Source = "histories"
	SourceSimilarSpecies Source = "similar_species"
)

// Entry is one confusion count: a taxon implicated alongside the focal
// taxon, and how often. TaxonID is zero when the source only carries
// names; Name is empty when it only carries IDs.
type Entry struct {
	TaxonID int64  `json:"taxon_id,omitempty" yaml:"taxon_id,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Count   int    `json:"count" yaml:"count"`
}

// Profile is the per-taxon confusion mapping handed to the caller for
// serialization. Entries are sorted by count descending, then name,
// then ID, so identical inputs always produce identical output
// regardless of input order.
type Profile struct {
	FocalTaxonID int64   `json:"focal_taxon_id" yaml:"focal_taxon_id"`
	Source       Source  `json:"source" yaml:"source"`
	Mode         Mode    `json:"mode,omitempty" yaml:"mode,omitempty"`
	Entries      []Entry `json:"entries" yaml:"entries"`
}

// Counts returns the profile as a name-or-ID keyed map, mainly for
// tests and quick lookups. Entries without a name key by decimal ID.
func (p *Profile) Counts() map[string]int {
	counts := make(map[string]int, len(p.Entries))
	for _, e := range p.Entries {
		counts[e.key()] = e.Count
	}
	return counts
}

func (e *Entry) key() string {
	if e.Name != "" {
		return e.Name
	}
	return strconv.FormatInt(e.TaxonID, 10)
}

// FromHistories reduces a collection of identification histories for a
// focal taxon into a confusion profile. The reduction is a commutative,
// associative sum: reordering the input histories or the occurrences
// within one history does not change the totals.
func FromHistories(focalTaxonID int64, histories []IdentificationHistory, mode Mode) *Profile {
	counts := make(map[string]int)

	for i := range histories {
		names := histories[i].Names
		switch mode {
		case ModeFinalOnly:
			if len(names) > 0 {
				counts[names[len(names)-1]]++
			}
		default:
			for _, name := range names {
				counts[name]++
			}
		}
	}

	entries := make([]Entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, Entry{Name: name, Count: count})
	}

	profile := &Profile{
		FocalTaxonID: focalTaxonID,
		Source:       SourceHistories,
		Mode:         mode,
		Entries:      entries,
	}
	profile.sortEntries()
	return profile
}

// FromSimilarSpecies passes the server-side similar-species aggregation
// through as a confusion profile. No local re-aggregation is needed,
// the remote service performs the same computation at larger scale.
func FromSimilarSpecies(focalTaxonID int64, counts []inat.SpeciesCount) *Profile {
	entries := make([]Entry, 0, len(counts))
	for _, sc := range counts {
		entries = append(entries, Entry{
			TaxonID: sc.Taxon.ID,
			Name:    sc.Taxon.Name,
			Count:   sc.Count,
		})
	}

	profile := &Profile{
		FocalTaxonID: focalTaxonID,
		Source:       SourceSimilarSpecies,
		Entries:      entries,
	}
	profile.sortEntries()
	return profile
}

func (p *Profile) sortEntries() {
	sort.SliceStable(p.Entries, func(i, j int) bool {
		a, b := p.Entries[i], p.Entries[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.TaxonID < b.TaxonID
	})
}

