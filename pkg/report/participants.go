package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// subjectPrefix is the fixed subject-identifier prefix some participant
// tables include and others omit.
const subjectPrefix = "sub-"

// Participants is a subject-keyed attribute table loaded from a
// tab-separated participants file.
type Participants struct {
	// Columns are the attribute column names, key column excluded.
	Columns []string

	rows map[string][]string
}

// LoadParticipants reads a tab-separated participants table whose first
// column is the subject identifier.
func LoadParticipants(path string) (*Participants, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadParticipants(f)
}

// ReadParticipants parses a participants table from r.
func ReadParticipants(r io.Reader) (*Participants, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse participants table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("participants table is empty")
	}

	header := records[0]
	if len(header) < 1 {
		return nil, fmt.Errorf("participants table has no columns")
	}

	p := &Participants{
		Columns: header[1:],
		rows:    make(map[string][]string, len(records)-1),
	}
	for _, rec := range records[1:] {
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		attrs := make([]string, len(p.Columns))
		for i := range attrs {
			if i+1 < len(rec) {
				attrs[i] = rec[i+1]
			}
		}
		p.rows[rec[0]] = attrs
	}
	return p, nil
}

// Lookup finds the attribute values for a subject: first by exact match,
// then by toggling the fixed subject prefix. An unmatched subject yields
// empty strings for every attribute column, never an error.
func (p *Participants) Lookup(subject string) []string {
	if attrs, ok := p.rows[subject]; ok {
		return attrs
	}
	toggled := subjectPrefix + subject
	if strings.HasPrefix(subject, subjectPrefix) {
		toggled = strings.TrimPrefix(subject, subjectPrefix)
	}
	if attrs, ok := p.rows[toggled]; ok {
		return attrs
	}
	return make([]string, len(p.Columns))
}

// WriteMergedCSV writes the summary left-joined with participant
// attributes on the subject identifier.
func (s *Summary) WriteMergedCSV(w io.Writer, p *Participants) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append(Header(), p.Columns...)); err != nil {
		return err
	}
	for _, row := range s.rows {
		record := append([]string{row.Subject, row.Session}, row.Values[:]...)
		record = append(record, p.Lookup(row.Subject)...)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveMergedCSV writes the participant-merged summary to a file.
func (s *Summary) SaveMergedCSV(path string, p *Participants) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.WriteMergedCSV(f, p)
}
