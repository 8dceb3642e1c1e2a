// Package confusion derives identification histories and taxon
// confusion profiles from observation data. Everything here is pure:
// no I/O, no hidden state.
package confusion

import (
	"github.com/tphakala/misid-go/internal/inat"
)

// IdentificationHistory is the ordered sequence of taxon names asserted
// for one observation over its lifetime. Order and content mirror the
// remote data exactly: consecutive repeats are kept and names are not
// validated.
type IdentificationHistory struct {
	ObservationID int64    `json:"observation_id" yaml:"observation_id"`
	Names         []string `json:"history" yaml:"history"`
}

// ExtractHistory maps an observation's identification events, in their
// given order, to the taxon names they asserted.
func ExtractHistory(obs *inat.Observation) IdentificationHistory {
	names := make([]string, 0, len(obs.Identifications))
	for _, ident := range obs.Identifications {
		names = append(names, ident.Taxon.Name)
	}
	return IdentificationHistory{
		ObservationID: obs.ID,
		Names:         names,
	}
}

// ExtractHistories applies ExtractHistory across a page-ordered
// observation collection, position-preserving.
func ExtractHistories(observations []inat.Observation) []IdentificationHistory {
	histories := make([]IdentificationHistory, 0, len(observations))
	for i := range observations {
		histories = append(histories, ExtractHistory(&observations[i]))
	}
	return histories
}
