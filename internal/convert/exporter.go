// Package convert drives the desktop Adobe InDesign application to export
// an InDesign document to PDF: script generation, process execution with a
// hard timeout, textual outcome classification, and artifact verification.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Request identifies the input document and output directory for one export.
type Request struct {
	InputPath string
	OutputDir string
	OnStage   func(stage string)
	OnLog     func(log ProcessLog)
}

// Result contains the verified output artifact path. A Result is only ever
// returned after the PDF has been confirmed to exist on disk.
type Result struct {
	PDFPath string
}

// scriptRunner isolates process execution behind an interface for tests.
type scriptRunner interface {
	Run(ctx context.Context, script string) (ProcessLog, error)
}

// Exporter composes script generation, process execution, and artifact
// verification into the end-to-end conversion of one document.
type Exporter struct {
	runner   scriptRunner
	stat     func(string) (os.FileInfo, error)
	mkdirAll func(string, os.FileMode) error
}

// NewExporter wires the production runner and OS dependencies.
func NewExporter(runner *Runner) *Exporter {
	return &Exporter{
		runner:   runner,
		stat:     os.Stat,
		mkdirAll: os.MkdirAll,
	}
}

// Export converts one document to PDF. Failures carry the phase that
// produced them and a stable error category; nothing is retried.
func (e *Exporter) Export(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.InputPath) == "" {
		return Result{}, &ConversionError{
			Kind:    KindValidation,
			Phase:   "verify input",
			Message: "input document path is required",
		}
	}
	if _, err := e.stat(req.InputPath); err != nil {
		return Result{}, &ConversionError{
			Kind:    KindValidation,
			Phase:   "verify input",
			Message: fmt.Sprintf("input document does not exist: %s", req.InputPath),
			Err:     err,
		}
	}

	if strings.TrimSpace(req.OutputDir) == "" {
		return Result{}, &ConversionError{
			Kind:    KindValidation,
			Phase:   "verify input",
			Message: "output directory is required",
		}
	}
	if err := e.mkdirAll(req.OutputDir, 0o755); err != nil {
		return Result{}, &ConversionError{
			Kind:    KindValidation,
			Phase:   "verify input",
			Message: fmt.Sprintf("cannot create output directory: %s", req.OutputDir),
			Err:     err,
		}
	}

	outputPath := OutputPathFor(req.InputPath, req.OutputDir)

	emitStage(req.OnStage, "script generation")
	script := GenerateExportScript(req.InputPath, outputPath)

	emitStage(req.OnStage, "process execution")
	log, err := e.runner.Run(ctx, script)
	emitLog(req.OnLog, log)
	if err != nil {
		return Result{}, err
	}

	// The external application can report success without producing the
	// file. Never trust the exit signal alone.
	emitStage(req.OnStage, "verification")
	if _, err := e.stat(outputPath); err != nil {
		return Result{}, &ConversionError{
			Kind:    KindArtifactNotProduced,
			Phase:   "verification",
			Message: fmt.Sprintf("InDesign reported success but no PDF was produced at %s", outputPath),
			Err:     err,
		}
	}

	return Result{PDFPath: outputPath}, nil
}

// OutputPathFor derives the PDF path from the input document's base name.
func OutputPathFor(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." {
		name = "export"
	}
	return filepath.Join(outputDir, name+".pdf")
}

// emitStage forwards stage updates when a callback is configured.
func emitStage(cb func(stage string), stage string) {
	if cb != nil {
		cb(stage)
	}
}

// emitLog forwards process logs when a callback is configured.
func emitLog(cb func(log ProcessLog), log ProcessLog) {
	if cb != nil {
		cb(log)
	}
}

// NewExporterForTests constructs an exporter with injectable dependencies.
func NewExporterForTests(
	runner scriptRunner,
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
) *Exporter {
	return &Exporter{runner: runner, stat: stat, mkdirAll: mkdirAll}
}
