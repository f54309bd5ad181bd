// Package pipeline runs the per-acquisition decision pipeline: metadata
// resolution, volume role classification, calibration derivation, labeling
// detection, parameter assembly, engine invocation and result aggregation.
// Runs are processed strictly sequentially; a failure in any stage records a
// typed outcome for that run and the batch moves on.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"aslquant/internal/models"
	"aslquant/pkg/calibration"
	"aslquant/pkg/classify"
	"aslquant/pkg/config"
	"aslquant/pkg/labeling"
	"aslquant/pkg/logging"
	"aslquant/pkg/metadata"
	"aslquant/pkg/params"
	"aslquant/pkg/report"
	"aslquant/pkg/tools"
	"aslquant/pkg/volume"
)

// Pipeline processes a dataset of perfusion acquisitions.
type Pipeline struct {
	cfg    *config.Config
	runner *tools.Runner
	log    *slog.Logger

	// datasetSources are the dataset-level sidecar candidates, ordered
	// nearer the root first. Collected once per batch.
	datasetSources []*metadata.Source
}

// New creates a pipeline with the given configuration.
func New(cfg *config.Config, log *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		runner: tools.NewRunner(tools.Config{
			Converter:     cfg.Tools.Converter,
			Validator:     cfg.Tools.Validator,
			Quantifier:    cfg.Tools.Quantifier,
			EngineTimeout: cfg.EngineTimeout(),
		}, log),
		log: log,
	}
}

// timingFields are the metadata fields resolved per run.
var timingFields = []metadata.Field{
	metadata.FieldDelays,
	metadata.FieldInversionTimes,
	metadata.FieldLabelingDuration,
	metadata.FieldRepetitionTime,
	metadata.FieldLabelingType,
	metadata.FieldReferenceRepetitionTime,
}

// Run processes every acquisition under datasetRoot and returns the batch
// summary. Missing required tools abort the batch before any run starts;
// everything after that is per-run recoverable.
func (p *Pipeline) Run(ctx context.Context, datasetRoot string) (*report.Summary, error) {
	if err := p.runner.CheckAvailable(); err != nil {
		return nil, err
	}

	if p.cfg.Tools.Validator != "" {
		if err := p.runner.Validate(ctx, datasetRoot); err != nil {
			// The validator is advisory: a non-compliant dataset can
			// still hold processable runs.
			p.log.Warn("dataset validation reported problems", "err", err)
		}
	}

	records, err := DiscoverRuns(datasetRoot)
	if err != nil {
		return nil, err
	}
	p.log.Info("discovered acquisitions", "count", len(records))

	p.datasetSources, err = metadata.CollectDatasetSources(datasetRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to collect dataset-level metadata: %w", err)
	}

	summary := &report.Summary{}
	for i := range records {
		rec := &records[i]
		runLog := logging.ForRun(p.log, rec.Subject, rec.Session, rec.Run)

		outcome := p.processRun(ctx, rec, runLog)
		summary.Add(outcome)

		switch outcome.State {
		case models.Completed:
			runLog.Info("run completed")
		case models.Failed:
			runLog.Error("run failed", "reason", outcome.Reason)
		case models.Skipped:
			runLog.Warn("run skipped", "reason", outcome.Reason)
		}
	}

	if err := p.writeSummary(summary, datasetRoot); err != nil {
		return summary, err
	}
	return summary, nil
}

// processRun takes one acquisition to a terminal outcome. Expected problems
// are returned as Skipped/Failed outcomes, never as panics or batch errors.
func (p *Pipeline) processRun(ctx context.Context, rec *models.AcquisitionRecord, log *slog.Logger) models.RunOutcome {
	outcome := models.RunOutcome{Subject: rec.Subject, Session: rec.Session, Run: rec.Run}

	skip := func(err error) models.RunOutcome {
		outcome.State = models.Skipped
		outcome.Err = err
		outcome.Reason = err.Error()
		return outcome
	}
	fail := func(err error) models.RunOutcome {
		outcome.State = models.Failed
		outcome.Err = err
		outcome.Reason = err.Error()
		return outcome
	}

	// Stage 1: metadata resolution.
	var runSource *metadata.Source
	if rec.SidecarPath != "" {
		src, err := metadata.LoadSource(rec.SidecarPath)
		if err != nil {
			log.Warn("unreadable run sidecar, falling back to dataset metadata", "err", err)
		} else {
			runSource = src
		}
	}
	sources := append([]*metadata.Source{runSource}, p.datasetSources...)
	bundle := metadata.Resolve(sources, timingFields...)
	if bundle != nil {
		log.Debug("metadata resolved", "source", bundle.SourcePath)
	}

	// At least one of the timing lists must resolve, else the run is
	// skipped before any external invocation.
	delays := bundle.FloatList(metadata.FieldDelays)
	tis := bundle.FloatList(metadata.FieldInversionTimes)
	if len(delays) == 0 && len(tis) == 0 {
		return skip(fmt.Errorf("%w: neither post-labeling delays nor inversion times resolved", ErrIncompleteMetadata))
	}

	// Stage 2: volume role classification.
	vol, err := volume.Load(rec.VolumePath)
	if err != nil {
		return skip(fmt.Errorf("%w: unreadable perfusion volume: %v", ErrMissingInput, err))
	}

	var contextRoles []classify.Role
	if rec.ContextPath != "" {
		contextRoles, err = classify.ParseContextFile(rec.ContextPath)
		if err != nil {
			// A malformed context table falls through to clustering.
			log.Warn("ignoring malformed context table", "err", err)
			contextRoles = nil
		}
	}
	assignment := classify.Classify(vol, contextRoles, log)
	log.Debug("volume roles assigned", "kind", assignment.Kind.String(), "format", string(assignment.Format()))

	// Stage 3: calibration image.
	var reference *volume.Volume
	if rec.ReferencePath != "" {
		reference, err = volume.Load(rec.ReferencePath)
		if err != nil {
			return skip(fmt.Errorf("%w: unreadable reference scan: %v", ErrMissingInput, err))
		}
	}
	cal, err := calibration.Derive(vol, assignment, reference)
	if err != nil {
		return skip(fmt.Errorf("%w: %v", ErrDerivationFailure, err))
	}
	if cal.Derived {
		path := filepath.Join(p.runOutputDir(rec), "calib_derived.nii.gz")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return skip(fmt.Errorf("%w: %v", ErrDerivationFailure, err))
		}
		if err := volume.Save(path, cal.Volume); err != nil {
			return skip(fmt.Errorf("%w: failed to write derived calibration image: %v", ErrDerivationFailure, err))
		}
		cal.Path = path
		log.Debug("derived calibration image", "controls", len(assignment.ControlIndices), "path", path)
	} else {
		cal.Path = rec.ReferencePath
	}

	// Stage 4: labeling type.
	resolvedType, _ := bundle.Text(metadata.FieldLabelingType)
	continuous := labeling.IsContinuous(resolvedType, sources...)
	log.Debug("labeling type detected", "continuous", continuous)

	// Stage 5: parameter assembly.
	var refBundle *metadata.Bundle
	if rec.ReferenceSidecarPath != "" {
		if refSource, err := metadata.LoadSource(rec.ReferenceSidecarPath); err == nil {
			refBundle = metadata.Resolve([]*metadata.Source{refSource}, metadata.FieldRepetitionTime)
		}
	}
	req, err := params.Assemble(params.Input{
		Assignment:        assignment,
		Metadata:          bundle,
		ReferenceMetadata: refBundle,
		Continuous:        continuous,
		Calibration:       cal,
		StructuralPath:    rec.StructuralPath,
	})
	if err != nil {
		// A missing structural volume is an input problem, not a
		// metadata one.
		if errors.Is(err, params.ErrNoStructuralReference) {
			return skip(fmt.Errorf("%w: %v", ErrMissingInput, err))
		}
		return skip(fmt.Errorf("%w: %v", ErrIncompleteMetadata, err))
	}

	// Stage 6: external quantification and result aggregation.
	reportPath, err := p.runner.Quantify(ctx, rec.VolumePath, req, p.runOutputDir(rec))
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrExternalTool, err))
	}

	metrics, err := report.ParseReportFile(reportPath)
	if err != nil {
		return fail(report.ErrUnparsableReport)
	}

	outcome.State = models.Completed
	outcome.Metrics = metrics
	return outcome
}

// runOutputDir is where one run's engine output and derived images live.
func (p *Pipeline) runOutputDir(rec *models.AcquisitionRecord) string {
	return filepath.Join(p.cfg.Output.Dir, strings.ReplaceAll(rec.ID(), "/", "_"))
}

// writeSummary persists the batch summary and, when a participants table is
// available, the participant-merged variant.
func (p *Pipeline) writeSummary(summary *report.Summary, datasetRoot string) error {
	if err := os.MkdirAll(p.cfg.Output.Dir, 0755); err != nil {
		return err
	}
	summaryPath := filepath.Join(p.cfg.Output.Dir, "summary.csv")
	if err := summary.SaveCSV(summaryPath); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	p.log.Info("summary written", "path", summaryPath, "rows", summary.Len())

	participantsPath := p.cfg.Output.Participants
	if participantsPath == "" {
		participantsPath = filepath.Join(datasetRoot, "participants.tsv")
	}
	if _, err := os.Stat(participantsPath); err != nil {
		return nil
	}
	parts, err := report.LoadParticipants(participantsPath)
	if err != nil {
		p.log.Warn("skipping participant merge", "err", err)
		return nil
	}
	mergedPath := filepath.Join(p.cfg.Output.Dir, "summary_participants.csv")
	if err := summary.SaveMergedCSV(mergedPath, parts); err != nil {
		return fmt.Errorf("failed to write merged summary: %w", err)
	}
	p.log.Info("participant-merged summary written", "path", mergedPath)
	return nil
}
