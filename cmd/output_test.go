package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-engine/internal/model"
)

func sampleLeads() []model.Lead {
	return []model.Lead{
		{
			ID:            "a",
			Name:          "Bakkerij Wolf",
			Website:       "https://bakkerijwolf.nl",
			InitialEmail:  model.StringPtr("info@bakkerijwolf.nl"),
			OwnerName:     model.StringPtr("Paula Wolf"),
			VerifiedEmail: model.StringPtr("paula@bakkerijwolf.nl"),
			Status:        model.LeadStatusVerified,
		},
		{
			ID:      "b",
			Name:    "Kapsalon Noord",
			Website: "https://kapsalonnoord.nl",
			Status:  model.LeadStatusFailed,
			Error:   "no content from website or search",
		},
	}
}

func TestWriteLeads_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLeads(&buf, sampleLeads(), "table"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Verified email")
	assert.Contains(t, lines[1], "paula@bakkerijwolf.nl")
	assert.Contains(t, lines[2], "failed")
	assert.Contains(t, lines[2], " - ")
}

func TestWriteLeads_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLeads(&buf, sampleLeads(), "json"))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "verified", got[0]["status"])
	assert.Nil(t, got[1]["ownerName"])
}

func TestWriteLeads_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLeads(&buf, sampleLeads(), "yaml"))

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "paula@bakkerijwolf.nl", got[0]["verified_email"])
}

func TestWriteLeads_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLeads(&buf, sampleLeads(), "csv"))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, leadHeader, rows[0])
	assert.Equal(t, "Paula Wolf", rows[1][3])
	assert.Equal(t, "", rows[2][2])
}

func TestWriteLeads_UnknownFormat(t *testing.T) {
	err := writeLeads(&bytes.Buffer{}, sampleLeads(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestWriteLeadsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, writeLeadsXLSX(path, sampleLeads()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Leads", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Name", sheet.Rows[0].Cells[0].Value)
	assert.Equal(t, "paula@bakkerijwolf.nl", sheet.Rows[1].Cells[4].Value)
	assert.Equal(t, "Kapsalon Noord", sheet.Rows[2].Cells[0].Value)
}
