// Package export writes pipeline results to caller-chosen sinks and
// renders them for the terminal.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/misid-go/internal/confusion"
	"github.com/tphakala/misid-go/internal/errors"
)

// Write serializes v to a file in the given format. The table format
// has no file form, it falls back to JSON.
func Write(path, format string, v any) error {
	if format == "yaml" {
		return WriteYAML(path, v)
	}
	return WriteJSON(path, v)
}

// WriteJSON serializes v as indented JSON to the given file path,
// creating parent directories as needed.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Newf("failed to marshal output: %w", err).
			Category(errors.CategoryFileParsing).
			Component("export").
			Build()
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Newf("failed to create output directory %s: %w", dir, err).
				Category(errors.CategoryFileIO).
				Context("path", path).
				Component("export").
				Build()
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Newf("failed to write output file %s: %w", path, err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("export").
			Build()
	}

	return nil
}

// WriteYAML serializes v as YAML to the given file path, creating
// parent directories as needed.
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Newf("failed to marshal output: %w", err).
			Category(errors.CategoryFileParsing).
			Component("export").
			Build()
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Newf("failed to create output directory %s: %w", dir, err).
				Category(errors.CategoryFileIO).
				Context("path", path).
				Component("export").
				Build()
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Newf("failed to write output file %s: %w", path, err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("export").
			Build()
	}

	return nil
}

// EncodeJSON streams v as indented JSON to a writer, for stdout output.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Newf("failed to encode output: %w", err).
			Category(errors.CategoryFileParsing).
			Component("export").
			Build()
	}
	return nil
}

// EncodeYAML streams v as YAML to a writer, for stdout output.
func EncodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Newf("failed to encode output: %w", err).
			Category(errors.CategoryFileParsing).
			Component("export").
			Build()
	}
	return enc.Close()
}

// ProfileTable renders a confusion profile as a rounded table.
func ProfileTable(p *confusion.Profile) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"Taxon", "ID", "Count"})
	for _, entry := range p.Entries {
		id := ""
		if entry.TaxonID != 0 {
			id = strconv.FormatInt(entry.TaxonID, 10)
		}
		tw.AppendRow(table.Row{entry.Name, id, entry.Count})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	tw.SetCaption("focal taxon %d, source %s", p.FocalTaxonID, p.Source)
	return tw.Render()
}

// HistoriesTable renders a summary of identification histories, one
// row per observation.
func HistoriesTable(histories []confusion.IdentificationHistory) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"Observation", "Identifications", "History"})
	for i := range histories {
		h := &histories[i]
		tw.AppendRow(table.Row{h.ObservationID, len(h.Names), historyColumn(h.Names)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

// historyColumn joins a name chain for display, truncating long chains.
func historyColumn(names []string) string {
	const maxShown = 5
	if len(names) <= maxShown {
		return strings.Join(names, " > ")
	}
	return fmt.Sprintf("%s (+%d)", strings.Join(names[:maxShown], " > "), len(names)-maxShown)
}
