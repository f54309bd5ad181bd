// Package report aggregates results: it parses the quantification engine's
// textual report into fixed named metrics, accumulates per-run summary rows,
// and merges them with subject-level participant attributes.
package report

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"aslquant/internal/models"
)

// ErrUnparsableReport means the engine report did not yield all seven
// metrics. The run is recorded as failed but keeps its summary row.
var ErrUnparsableReport = errors.New("unparsable engine report")

// ParseReport extracts the seven named metrics from an engine report.
// A metric line is "<label>,<value...>": the label must match one of the
// fixed metric names, the first comma-delimited value field is taken, and a
// trailing unit suffix after the number is stripped. Unless exactly seven
// metrics are found the report is unparsable.
func ParseReport(r io.Reader) (*models.PerfusionMetrics, error) {
	found := make(map[string]float64, len(models.MetricNames))

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.SplitN(scanner.Text(), ",", 3)
		if len(fields) < 2 {
			continue
		}
		label := strings.TrimSpace(fields[0])
		name, ok := matchMetric(label)
		if !ok {
			continue
		}
		if _, seen := found[name]; seen {
			continue
		}
		value, err := parseValueField(fields[1])
		if err != nil {
			continue
		}
		found[name] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(found) != len(models.MetricNames) {
		return nil, ErrUnparsableReport
	}

	return &models.PerfusionMetrics{
		MeanWithinMask: found[models.MetricNames[0]],
		GMMean:         found[models.MetricNames[1]],
		PureGMMean:     found[models.MetricNames[2]],
		CorticalGMMean: found[models.MetricNames[3]],
		WMMean:         found[models.MetricNames[4]],
		PureWMMean:     found[models.MetricNames[5]],
		CerebralWMMean: found[models.MetricNames[6]],
	}, nil
}

// ParseReportFile is ParseReport over a file on disk. A missing or
// unreadable report is unparsable, not a distinct failure.
func ParseReportFile(path string) (*models.PerfusionMetrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrUnparsableReport
	}
	defer f.Close()
	return ParseReport(f)
}

func matchMetric(label string) (string, bool) {
	for _, name := range models.MetricNames {
		if strings.EqualFold(label, name) {
			return name, true
		}
	}
	return "", false
}

// parseValueField parses the leading number of a value field, dropping a
// trailing unit such as "ml/100g/min".
func parseValueField(field string) (float64, error) {
	token := strings.TrimSpace(field)
	if i := strings.IndexAny(token, " \t"); i >= 0 {
		token = token[:i]
	}
	return strconv.ParseFloat(token, 64)
}
