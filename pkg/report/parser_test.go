package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `Perfusion quantification report
Generated by engine v2.1

Mean within mask,41.3 ml/100g/min
GM mean,58.2 ml/100g/min
Pure GM mean,62.8 ml/100g/min
Cortical GM mean,60.1 ml/100g/min
WM mean,22.4 ml/100g/min
Pure WM mean,19.7 ml/100g/min
Cerebral WM mean,21.0 ml/100g/min

Voxels in mask,18230
`

func TestParseReport(t *testing.T) {
	metrics, err := ParseReport(strings.NewReader(sampleReport))
	require.NoError(t, err)

	assert.Equal(t, 41.3, metrics.MeanWithinMask)
	assert.Equal(t, 58.2, metrics.GMMean)
	assert.Equal(t, 62.8, metrics.PureGMMean)
	assert.Equal(t, 60.1, metrics.CorticalGMMean)
	assert.Equal(t, 22.4, metrics.WMMean)
	assert.Equal(t, 19.7, metrics.PureWMMean)
	assert.Equal(t, 21.0, metrics.CerebralWMMean)
}

func TestParseReportMisordered(t *testing.T) {
	// Metric lines may appear in any order in the report.
	lines := []string{
		"WM mean,22.4 ml/100g/min",
		"Mean within mask,41.3 ml/100g/min",
		"Cerebral WM mean,21.0 ml/100g/min",
		"GM mean,58.2 ml/100g/min",
		"Pure WM mean,19.7 ml/100g/min",
		"Pure GM mean,62.8 ml/100g/min",
		"Cortical GM mean,60.1 ml/100g/min",
	}
	metrics, err := ParseReport(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, 41.3, metrics.MeanWithinMask)
	assert.Equal(t, 21.0, metrics.CerebralWMMean)
}

func TestParseReportNoUnit(t *testing.T) {
	lines := []string{
		"Mean within mask,41.3",
		"GM mean,58.2",
		"Pure GM mean,62.8",
		"Cortical GM mean,60.1",
		"WM mean,22.4",
		"Pure WM mean,19.7",
		"Cerebral WM mean,21.0",
	}
	metrics, err := ParseReport(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, 19.7, metrics.PureWMMean)
}

func TestParseReportMissingMetric(t *testing.T) {
	truncated := strings.Replace(sampleReport, "Cerebral WM mean,21.0 ml/100g/min\n", "", 1)

	_, err := ParseReport(strings.NewReader(truncated))
	assert.ErrorIs(t, err, ErrUnparsableReport)
}

func TestParseReportFirstOccurrenceWins(t *testing.T) {
	doubled := sampleReport + "\nGM mean,99.9 ml/100g/min\n"

	metrics, err := ParseReport(strings.NewReader(doubled))
	require.NoError(t, err)
	assert.Equal(t, 58.2, metrics.GMMean)
}

func TestParseReportFileMissing(t *testing.T) {
	_, err := ParseReportFile("/nonexistent/report.csv")
	assert.ErrorIs(t, err, ErrUnparsableReport)
}
