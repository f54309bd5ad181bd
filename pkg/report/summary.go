package report

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"aslquant/internal/models"
)

// Placeholder values used when a run produced no metrics.
const (
	// PlaceholderNA marks runs that were skipped or whose report could
	// not be parsed.
	PlaceholderNA = "NA"

	// PlaceholderFail marks runs where the engine call itself failed.
	PlaceholderFail = "FAIL"
)

// Row is one summary line: subject, session, then the seven metric columns.
type Row struct {
	Subject string
	Session string
	Values  [7]string
}

// Summary is the append-only batch result table. It has a single writer
// (the sequential batch loop) and is never read concurrently with a write.
type Summary struct {
	rows []Row
}

// Header returns the fixed summary column names.
func Header() []string {
	h := []string{"subject", "session"}
	for _, name := range models.MetricNames {
		h = append(h, name)
	}
	return h
}

// Add appends the row for one run outcome. Every attempted run gets exactly
// one row: completed runs carry numeric values, failed engine calls carry
// FAIL placeholders, and skipped runs or unparsable reports carry NA.
func (s *Summary) Add(outcome models.RunOutcome) {
	row := Row{Subject: outcome.Subject, Session: outcome.Session}

	switch {
	case outcome.State == models.Completed && outcome.Metrics != nil:
		for i, v := range outcome.Metrics.Values() {
			row.Values[i] = strconv.FormatFloat(v, 'f', 4, 64)
		}
	case outcome.State == models.Failed && !errors.Is(outcome.Err, ErrUnparsableReport):
		for i := range row.Values {
			row.Values[i] = PlaceholderFail
		}
	default:
		for i := range row.Values {
			row.Values[i] = PlaceholderNA
		}
	}

	s.rows = append(s.rows, row)
}

// Rows returns the accumulated rows in append order.
func (s *Summary) Rows() []Row {
	return s.rows
}

// Len returns the number of accumulated rows.
func (s *Summary) Len() int {
	return len(s.rows)
}

// WriteCSV writes the summary with its header to w.
func (s *Summary) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, row := range s.rows {
		record := append([]string{row.Subject, row.Session}, row.Values[:]...)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the summary to a file.
func (s *Summary) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.WriteCSV(f)
}

// Render prints the summary as a console table.
func (s *Summary) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.Header(Header())
	for _, row := range s.rows {
		table.Append(append([]string{row.Subject, row.Session}, row.Values[:]...))
	}
	table.Render()
}
