package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aslquant/internal/models"
	"aslquant/pkg/config"
	"aslquant/pkg/report"
	"aslquant/pkg/volume"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validReport = `Mean within mask,41.3 ml/100g/min
GM mean,58.2 ml/100g/min
Pure GM mean,62.8 ml/100g/min
Cortical GM mean,60.1 ml/100g/min
WM mean,22.4 ml/100g/min
Pure WM mean,19.7 ml/100g/min
Cerebral WM mean,21.0 ml/100g/min
`

// fakeEngine writes a shell script that plays the quantification engine:
// it finds its --out argument, drops the given report there and exits with
// the given status.
func fakeEngine(t *testing.T, reportContent string, exitCode int) string {
	t.Helper()
	script := "#!/bin/sh\n" +
		"out=\"\"\n" +
		"prev=\"\"\n" +
		"for a in \"$@\"; do\n" +
		"  if [ \"$prev\" = \"--out\" ]; then out=\"$a\"; fi\n" +
		"  prev=\"$a\"\n" +
		"done\n"
	if reportContent != "" {
		script += "cat > \"$out/perfusion_report.csv\" <<'EOF'\n" + reportContent + "EOF\n"
	}
	script += fmt.Sprintf("exit %d\n", exitCode)

	path := filepath.Join(t.TempDir(), "engine.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

// writeDataset builds a minimal single-subject dataset: a 4-D perfusion
// volume with alternating control/label intensities, a run sidecar and a
// structural reference.
func writeDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	perfDir := filepath.Join(root, "sub-01", "perf")
	require.NoError(t, os.MkdirAll(perfDir, 0755))

	v := &volume.Volume{NX: 2, NY: 2, NZ: 1, NT: 4}
	v.VoxelSize.X, v.VoxelSize.Y, v.VoxelSize.Z = 3, 3, 5
	for _, fv := range []float64{100, 50, 102, 49} {
		for i := 0; i < 4; i++ {
			v.Data = append(v.Data, fv+float64(i)*0.01)
		}
	}
	require.NoError(t, volume.Save(filepath.Join(perfDir, "sub-01_asl.nii"), v))

	sidecar := `{
		"PostLabelingDelay": 1.8,
		"LabelingDuration": 1.4,
		"RepetitionTime": 4.1,
		"ArterialSpinLabelingType": "PCASL"
	}`
	require.NoError(t, os.WriteFile(filepath.Join(perfDir, "sub-01_asl.json"), []byte(sidecar), 0644))

	anatDir := filepath.Join(root, "sub-01", "anat")
	require.NoError(t, os.MkdirAll(anatDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(anatDir, "sub-01_T1w.nii"), nil, 0644))

	return root
}

func testConfig(t *testing.T, quantifier string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Tools.Converter = ""
	cfg.Tools.Validator = ""
	cfg.Tools.Quantifier = quantifier
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	return cfg
}

func TestPipelineRunCompleted(t *testing.T) {
	root := writeDataset(t)
	cfg := testConfig(t, fakeEngine(t, validReport, 0))

	p := New(cfg, discardLogger())
	summary, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Len())

	row := summary.Rows()[0]
	assert.Equal(t, "sub-01", row.Subject)
	assert.Equal(t, "41.3000", row.Values[0])
	assert.Equal(t, "21.0000", row.Values[6])

	// The batch summary is persisted next to the run outputs.
	_, err = os.Stat(filepath.Join(cfg.Output.Dir, "summary.csv"))
	assert.NoError(t, err)

	// The calibration image was derived from the control frames.
	_, err = os.Stat(filepath.Join(cfg.Output.Dir, "sub-01", "calib_derived.nii.gz"))
	assert.NoError(t, err)
}

func TestPipelineRunEngineFailure(t *testing.T) {
	root := writeDataset(t)
	cfg := testConfig(t, fakeEngine(t, "", 1))

	p := New(cfg, discardLogger())
	summary, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Len())

	for _, v := range summary.Rows()[0].Values {
		assert.Equal(t, report.PlaceholderFail, v)
	}
}

func TestPipelineRunUnparsableReport(t *testing.T) {
	root := writeDataset(t)
	cfg := testConfig(t, fakeEngine(t, "not,a\nreal,report\n", 0))

	p := New(cfg, discardLogger())
	summary, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Len())

	for _, v := range summary.Rows()[0].Values {
		assert.Equal(t, report.PlaceholderNA, v)
	}
}

func TestPipelineRunMissingEngine(t *testing.T) {
	root := writeDataset(t)
	cfg := testConfig(t, filepath.Join(t.TempDir(), "no_such_engine"))

	p := New(cfg, discardLogger())
	_, err := p.Run(context.Background(), root)
	assert.Error(t, err)
}

func TestProcessRunSkipsWithoutTiming(t *testing.T) {
	root := writeDataset(t)
	sidecar := filepath.Join(root, "sub-01", "perf", "sub-01_asl.json")
	require.NoError(t, os.WriteFile(sidecar, []byte(`{"Manufacturer": "x"}`), 0644))

	cfg := testConfig(t, fakeEngine(t, validReport, 0))
	p := New(cfg, discardLogger())

	records, err := DiscoverRuns(root)
	require.NoError(t, err)
	require.Len(t, records, 1)

	outcome := p.processRun(context.Background(), &records[0], discardLogger())
	assert.Equal(t, models.Skipped, outcome.State)
	assert.Contains(t, outcome.Reason, ErrIncompleteMetadata.Error())
}

func TestProcessRunSkipsUnreadableVolume(t *testing.T) {
	root := writeDataset(t)
	vol := filepath.Join(root, "sub-01", "perf", "sub-01_asl.nii")
	require.NoError(t, os.WriteFile(vol, []byte("garbage"), 0644))

	cfg := testConfig(t, fakeEngine(t, validReport, 0))
	p := New(cfg, discardLogger())

	records, err := DiscoverRuns(root)
	require.NoError(t, err)

	outcome := p.processRun(context.Background(), &records[0], discardLogger())
	assert.Equal(t, models.Skipped, outcome.State)
	assert.Contains(t, outcome.Reason, ErrMissingInput.Error())
}

func TestProcessRunSkipsWithoutStructural(t *testing.T) {
	root := writeDataset(t)
	require.NoError(t, os.RemoveAll(filepath.Join(root, "sub-01", "anat")))

	cfg := testConfig(t, fakeEngine(t, validReport, 0))
	p := New(cfg, discardLogger())

	records, err := DiscoverRuns(root)
	require.NoError(t, err)

	outcome := p.processRun(context.Background(), &records[0], discardLogger())
	assert.Equal(t, models.Skipped, outcome.State)
	assert.True(t, errors.Is(outcome.Err, ErrMissingInput))
	assert.Contains(t, outcome.Reason, ErrMissingInput.Error())
}

func TestPipelineRunParticipantsMerge(t *testing.T) {
	root := writeDataset(t)
	tsv := "participant_id\tage\nsub-01\t54\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "participants.tsv"), []byte(tsv), 0644))

	cfg := testConfig(t, fakeEngine(t, validReport, 0))
	p := New(cfg, discardLogger())

	_, err := p.Run(context.Background(), root)
	require.NoError(t, err)

	merged, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "summary_participants.csv"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(merged), "age"))
	assert.True(t, strings.Contains(string(merged), "54"))
}
