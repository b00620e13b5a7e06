package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-engine/internal/model"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatCSV   = "csv"
)

var leadHeader = []string{"Name", "Website", "Email", "Owner", "Verified email", "Status", "Error"}

func leadRow(l model.Lead) []string {
	return []string{
		l.Name,
		l.Website,
		deref(l.InitialEmail),
		deref(l.OwnerName),
		deref(l.VerifiedEmail),
		string(l.Status),
		l.Error,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// writeLeads renders leads to w in format.
func writeLeads(w io.Writer, leads []model.Lead, format string) error {
	switch format {
	case formatTable, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(leadHeader, "\t"))
		for _, l := range leads {
			fmt.Fprintln(tw, strings.Join(dashEmpty(leadRow(l)), "\t"))
		}
		return tw.Flush()
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(leads)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close() //nolint:errcheck
		return enc.Encode(leads)
	case formatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(leadHeader); err != nil {
			return eris.Wrap(err, "write csv header")
		}
		for _, l := range leads {
			if err := cw.Write(leadRow(l)); err != nil {
				return eris.Wrap(err, "write csv row")
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return eris.Errorf("unknown output format %q", format)
	}
}

func dashEmpty(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c == "" {
			c = "-"
		}
		out[i] = c
	}
	return out
}

// writeLeadsXLSX saves leads as a one-sheet workbook at path.
func writeLeadsXLSX(path string, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}
	addRow := func(cells []string) {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	addRow(leadHeader)
	for _, l := range leads {
		addRow(leadRow(l))
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save")
	}
	return nil
}
