// Package tools wraps the external collaborators: the DICOM-to-NIfTI
// converter, the dataset compliance validator, and the perfusion
// quantification engine. All three are opaque blocking subprocesses; the
// engine call additionally carries a configurable timeout.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"aslquant/pkg/params"
)

// ReportFilename is the report file the engine leaves in the run output
// directory.
const ReportFilename = "perfusion_report.csv"

// Config names the external commands and the engine timeout.
type Config struct {
	// Converter is the DICOM-to-NIfTI conversion command.
	Converter string

	// Validator is the dataset compliance validator command.
	Validator string

	// Quantifier is the perfusion quantification engine command.
	Quantifier string

	// EngineTimeout bounds one quantification call. Zero means no
	// timeout.
	EngineTimeout time.Duration
}

// Runner invokes the external commands.
type Runner struct {
	cfg Config
	log *slog.Logger
}

// NewRunner creates a runner for the configured commands.
func NewRunner(cfg Config, log *slog.Logger) *Runner {
	return &Runner{cfg: cfg, log: log}
}

// CheckAvailable verifies that every configured command resolves on PATH.
// A missing command is a fatal, batch-aborting condition: the caller must
// not start processing runs.
func (r *Runner) CheckAvailable() error {
	var missing []string
	for _, tool := range []string{r.cfg.Converter, r.cfg.Validator, r.cfg.Quantifier} {
		if tool == "" {
			continue
		}
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools not found on PATH: %s", strings.Join(missing, ", "))
	}
	if r.cfg.Quantifier == "" {
		return fmt.Errorf("no quantification engine configured")
	}
	return nil
}

// Convert runs the format converter on a source directory, writing NIfTI
// output next to it.
func (r *Runner) Convert(ctx context.Context, srcDir, dstDir string) error {
	cmd := exec.CommandContext(ctx, r.cfg.Converter, "-o", dstDir, srcDir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("converter failed: %w: %s", err, firstLine(out))
	}
	return nil
}

// Validate runs the compliance validator over the dataset root.
func (r *Runner) Validate(ctx context.Context, datasetRoot string) error {
	cmd := exec.CommandContext(ctx, r.cfg.Validator, datasetRoot)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("validator reported problems: %w: %s", err, firstLine(out))
	}
	return nil
}

// Quantify invokes the engine for one run. The request is rendered to
// command-line arguments, stdout and stderr are captured into the run's
// output directory, and the engine is expected to leave its report there.
// A non-zero exit or an expired timeout is returned as an error; the
// caller converts it to a per-run failure without aborting the batch.
func (r *Runner) Quantify(ctx context.Context, volumePath string, req *params.Request, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if r.cfg.EngineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.EngineTimeout)
		defer cancel()
	}

	args := engineArgs(volumePath, req, outDir)
	r.log.Debug("invoking quantification engine", "cmd", r.cfg.Quantifier, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, r.cfg.Quantifier, args...)

	stdout, err := os.Create(filepath.Join(outDir, "engine_stdout.log"))
	if err != nil {
		return "", err
	}
	defer stdout.Close()
	stderr, err := os.Create(filepath.Join(outDir, "engine_stderr.log"))
	if err != nil {
		return "", err
	}
	defer stderr.Close()
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("engine timed out after %s", r.cfg.EngineTimeout)
		}
		return "", fmt.Errorf("engine failed after %s: %w", elapsed.Round(time.Second), err)
	}

	r.log.Debug("engine completed", "elapsed", elapsed.Round(time.Second))
	return filepath.Join(outDir, ReportFilename), nil
}

// engineArgs renders the quantification request to engine arguments.
// Only resolved fields are passed; the engine applies its own defaults.
func engineArgs(volumePath string, req *params.Request, outDir string) []string {
	args := []string{
		"--input", volumePath,
		"--format", string(req.Format),
		"--out", outDir,
		"--calib", req.Calibration.Path,
		"--cmethod", params.CalibrationMethod,
		"--struct", req.StructuralPath,
	}
	if len(req.Delays) > 0 {
		args = append(args, "--plds", joinFloats(req.Delays))
	}
	if len(req.InversionTimes) > 0 {
		args = append(args, "--tis", joinFloats(req.InversionTimes))
	}
	if req.HasLabelingDuration {
		args = append(args, "--bolus", formatFloat(req.LabelingDuration))
	}
	if req.HasRepetitionTime {
		args = append(args, "--tr", formatFloat(req.RepetitionTime))
	}
	if req.Continuous {
		args = append(args, "--casl")
	}
	return args
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ",")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
