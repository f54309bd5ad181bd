package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aslquant/internal/models"
)

const participantsTSV = "participant_id\tage\tsex\n" +
	"sub-01\t54\tF\n" +
	"sub-02\t61\tM\n"

const bareParticipantsTSV = "participant_id\tage\tsex\n" +
	"01\t54\tF\n" +
	"02\t61\tM\n"

func TestReadParticipants(t *testing.T) {
	p, err := ReadParticipants(strings.NewReader(participantsTSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "sex"}, p.Columns)
	assert.Equal(t, []string{"54", "F"}, p.Lookup("sub-01"))
}

func TestLookupPrefixToggle(t *testing.T) {
	prefixed, err := ReadParticipants(strings.NewReader(participantsTSV))
	require.NoError(t, err)
	bare, err := ReadParticipants(strings.NewReader(bareParticipantsTSV))
	require.NoError(t, err)

	// Table carries the prefix, query does not.
	assert.Equal(t, []string{"61", "M"}, prefixed.Lookup("02"))

	// Query carries the prefix, table does not.
	assert.Equal(t, []string{"54", "F"}, bare.Lookup("sub-01"))
}

func TestLookupUnmatched(t *testing.T) {
	p, err := ReadParticipants(strings.NewReader(participantsTSV))
	require.NoError(t, err)

	attrs := p.Lookup("sub-99")
	require.Len(t, attrs, 2)
	assert.Equal(t, []string{"", ""}, attrs)
}

func TestReadParticipantsShortRows(t *testing.T) {
	// Rows with fewer fields than the header pad with empty strings.
	p, err := ReadParticipants(strings.NewReader("participant_id\tage\tsex\nsub-01\t54\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"54", ""}, p.Lookup("sub-01"))
}

func TestReadParticipantsEmpty(t *testing.T) {
	_, err := ReadParticipants(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteMergedCSV(t *testing.T) {
	p, err := ReadParticipants(strings.NewReader(participantsTSV))
	require.NoError(t, err)

	var s Summary
	s.Add(completedOutcome("sub-01", "ses-01"))
	s.Add(models.RunOutcome{Subject: "sub-99", State: models.Skipped})

	var buf bytes.Buffer
	require.NoError(t, s.WriteMergedCSV(&buf, p))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, "age", header[len(header)-2])
	assert.Equal(t, "sex", header[len(header)-1])

	matched := records[1]
	assert.Equal(t, "54", matched[len(matched)-2])
	assert.Equal(t, "F", matched[len(matched)-1])

	unmatched := records[2]
	assert.Equal(t, "", unmatched[len(unmatched)-2])
	assert.Equal(t, "", unmatched[len(unmatched)-1])
}
