package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aslquant/internal/models"
)

func completedOutcome(subject, session string) models.RunOutcome {
	return models.RunOutcome{
		Subject: subject,
		Session: session,
		State:   models.Completed,
		Metrics: &models.PerfusionMetrics{
			MeanWithinMask: 41.3,
			GMMean:         58.2,
			PureGMMean:     62.8,
			CorticalGMMean: 60.1,
			WMMean:         22.4,
			PureWMMean:     19.7,
			CerebralWMMean: 21.0,
		},
	}
}

func TestSummaryAddCompleted(t *testing.T) {
	var s Summary
	s.Add(completedOutcome("sub-01", "ses-01"))

	require.Equal(t, 1, s.Len())
	row := s.Rows()[0]
	assert.Equal(t, "sub-01", row.Subject)
	assert.Equal(t, "41.3000", row.Values[0])
	assert.Equal(t, "21.0000", row.Values[6])
}

func TestSummaryAddEngineFailure(t *testing.T) {
	var s Summary
	s.Add(models.RunOutcome{
		Subject: "sub-02",
		State:   models.Failed,
		Err:     errors.New("engine exited with status 1"),
		Reason:  "engine exited with status 1",
	})

	for _, v := range s.Rows()[0].Values {
		assert.Equal(t, PlaceholderFail, v)
	}
}

func TestSummaryAddUnparsableReport(t *testing.T) {
	var s Summary
	s.Add(models.RunOutcome{
		Subject: "sub-03",
		State:   models.Failed,
		Err:     ErrUnparsableReport,
		Reason:  ErrUnparsableReport.Error(),
	})

	for _, v := range s.Rows()[0].Values {
		assert.Equal(t, PlaceholderNA, v)
	}
}

func TestSummaryAddWrappedUnparsableReport(t *testing.T) {
	// The NA/FAIL split matches the error identity, not its message, so
	// a wrapped or reworded reason still maps to NA.
	var s Summary
	s.Add(models.RunOutcome{
		Subject: "sub-03",
		State:   models.Failed,
		Err:     fmt.Errorf("report at run output dir: %w", ErrUnparsableReport),
		Reason:  "report could not be parsed",
	})

	for _, v := range s.Rows()[0].Values {
		assert.Equal(t, PlaceholderNA, v)
	}
}

func TestSummaryAddSkipped(t *testing.T) {
	var s Summary
	s.Add(models.RunOutcome{
		Subject: "sub-04",
		State:   models.Skipped,
		Reason:  "incomplete acquisition metadata",
	})

	for _, v := range s.Rows()[0].Values {
		assert.Equal(t, PlaceholderNA, v)
	}
}

func TestSummaryWriteCSV(t *testing.T) {
	var s Summary
	s.Add(completedOutcome("sub-01", ""))
	s.Add(models.RunOutcome{Subject: "sub-02", State: models.Skipped})

	var buf bytes.Buffer
	require.NoError(t, s.WriteCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Header(), records[0])
	assert.Len(t, records[1], 9)
	assert.Equal(t, "sub-02", records[2][0])
	assert.Equal(t, PlaceholderNA, records[2][2])
}

func TestSummaryRender(t *testing.T) {
	var s Summary
	s.Add(completedOutcome("sub-01", "ses-01"))

	var buf bytes.Buffer
	s.Render(&buf)

	out := buf.String()
	assert.Contains(t, out, "sub-01")
	assert.Contains(t, out, "41.3000")
}
