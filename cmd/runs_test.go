package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/landrank/internal/model"
)

func sampleRuns() []model.Run {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	return []model.Run{
		{
			ID:            "abc12345-6789-0000-0000-000000000000",
			Source:        "data/sheffield_parcels.csv",
			ContentHash:   "9f86d081884c7d659a2feaa0c55ad015",
			Weights:       map[string]float64{"Social": 0.4, "Technical": 0.3, "Economic": 0.2, "Fairness": 0.1},
			OnlyAvailable: true,
			ParcelCount:   120,
			Summary:       model.Summary{ParcelCount: 120, TotalEnergyGWh: 12.346, Households: 3429, CO2Tons: 2876},
			Top: []model.RankedParcel{
				{Rank: 1, ID: "P7", Zone: "North", Score: 2.91, EnergyKWh: 1_200_000, Households: 333.33, CO2Tons: 279.6},
			},
			CreatedAt: now,
		},
		{
			ID:          "def12345-6789-0000-0000-000000000000",
			Source:      "https://data.example.org/very/long/path/to/some/parcel_export_2025.xlsx",
			ParcelCount: 8,
			CreatedAt:   now.Add(-1 * time.Hour),
		},
	}
}

func TestFormatRunsList(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, sampleRuns())

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "SOURCE")
	assert.Contains(t, output, "PARCELS")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "data/sheffield_parcels.csv")
	assert.Contains(t, output, "12.35")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "...")
	assert.Contains(t, output, "parcel_export_2025.xlsx")
}

func TestFormatRun(t *testing.T) {
	run := sampleRuns()[0]
	run.DroppedInvalidDates = 3

	var buf bytes.Buffer
	formatRun(&buf, &run)

	output := buf.String()
	assert.Contains(t, output, "Run abc12345-6789-0000-0000-000000000000")
	assert.Contains(t, output, "Hash:     9f86d081")
	assert.Contains(t, output, "Dropped:  3 rows")
	assert.Contains(t, output, "Social")
	assert.Contains(t, output, "P7")
	assert.Contains(t, output, "1200000.0")
	assert.Contains(t, output, "3,429")
	assert.Contains(t, output, "12.35 GWh/year")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}

func TestRunsCommands_AgainstStore(t *testing.T) {
	setTestConfig(t)
	ctx := context.Background()

	st, err := initStore(ctx)
	require.NoError(t, err)
	run := sampleRuns()[0]
	require.NoError(t, st.SaveRun(ctx, &run))
	require.NoError(t, st.Close())

	var buf bytes.Buffer
	runsListCmd.SetOut(&buf)
	runsListCmd.SetContext(ctx)
	t.Cleanup(func() { runsListCmd.SetOut(nil) })
	require.NoError(t, runsListCmd.RunE(runsListCmd, nil))
	assert.Contains(t, buf.String(), "abc12345")

	buf.Reset()
	runsShowCmd.SetOut(&buf)
	runsShowCmd.SetContext(ctx)
	t.Cleanup(func() { runsShowCmd.SetOut(nil) })
	require.NoError(t, runsShowCmd.RunE(runsShowCmd, []string{run.ID}))
	assert.Contains(t, buf.String(), "P7")

	err = runsShowCmd.RunE(runsShowCmd, []string{"missing"})
	assert.Error(t, err)
}

func TestInitStore_RequiresURL(t *testing.T) {
	c := setTestConfig(t)
	c.Store.DatabaseURL = ""

	_, err := initStore(context.Background())
	assert.Error(t, err)
}
