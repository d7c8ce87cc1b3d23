package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeScriptRunner simulates the external process behind the exporter.
type fakeScriptRunner struct {
	run func(ctx context.Context, script string) (ProcessLog, error)
}

func (f *fakeScriptRunner) Run(ctx context.Context, script string) (ProcessLog, error) {
	if f.run == nil {
		return ProcessLog{}, nil
	}
	return f.run(ctx, script)
}

// TestExporterExportSuccess checks the full path from document to verified PDF.
func TestExporterExportSuccess(t *testing.T) {
	root := t.TempDir()
	inputPath := filepath.Join(root, "brochure.indd")
	outputDir := filepath.Join(root, "out")
	mustWriteFile(t, inputPath, "doc")

	var seenScript string
	runner := &fakeScriptRunner{
		run: func(ctx context.Context, script string) (ProcessLog, error) {
			seenScript = script
			mustWriteFile(t, OutputPathFor(inputPath, outputDir), "pdf")
			return ProcessLog{Command: "osascript", ExitCode: 0}, nil
		},
	}

	var stages []string
	var logs []ProcessLog
	exporter := NewExporterForTests(runner, os.Stat, os.MkdirAll)
	result, err := exporter.Export(context.Background(), Request{
		InputPath: inputPath,
		OutputDir: outputDir,
		OnStage:   func(stage string) { stages = append(stages, stage) },
		OnLog:     func(log ProcessLog) { logs = append(logs, log) },
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	want := filepath.Join(outputDir, "brochure.pdf")
	if result.PDFPath != want {
		t.Fatalf("pdf path = %q, want %q", result.PDFPath, want)
	}
	if !strings.Contains(seenScript, "brochure.pdf") {
		t.Fatalf("script missing output path:\n%s", seenScript)
	}
	if len(logs) != 1 || logs[0].Command != "osascript" {
		t.Fatalf("logs = %+v, want one osascript entry", logs)
	}

	wantStages := []string{"script generation", "process execution", "verification"}
	if len(stages) != len(wantStages) {
		t.Fatalf("stages = %v, want %v", stages, wantStages)
	}
	for i := range wantStages {
		if stages[i] != wantStages[i] {
			t.Fatalf("stage[%d] = %q, want %q", i, stages[i], wantStages[i])
		}
	}
}

// TestExporterExportMissingInput checks input validation.
func TestExporterExportMissingInput(t *testing.T) {
	root := t.TempDir()
	exporter := NewExporterForTests(&fakeScriptRunner{}, os.Stat, os.MkdirAll)

	_, err := exporter.Export(context.Background(), Request{
		InputPath: filepath.Join(root, "absent.indd"),
		OutputDir: filepath.Join(root, "out"),
	})
	if KindOf(err) != KindValidation {
		t.Fatalf("kind = %s, want %s", KindOf(err), KindValidation)
	}
}

// TestExporterExportArtifactNotProduced checks the verification gate: a
// clean process run without a PDF on disk is still a failure.
func TestExporterExportArtifactNotProduced(t *testing.T) {
	root := t.TempDir()
	inputPath := filepath.Join(root, "brochure.indd")
	mustWriteFile(t, inputPath, "doc")

	runner := &fakeScriptRunner{
		run: func(ctx context.Context, script string) (ProcessLog, error) {
			return ProcessLog{ExitCode: 0}, nil
		},
	}
	exporter := NewExporterForTests(runner, os.Stat, os.MkdirAll)

	_, err := exporter.Export(context.Background(), Request{
		InputPath: inputPath,
		OutputDir: filepath.Join(root, "out"),
	})
	if KindOf(err) != KindArtifactNotProduced {
		t.Fatalf("kind = %s, want %s", KindOf(err), KindArtifactNotProduced)
	}
	if !strings.Contains(err.Error(), "no PDF was produced") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExporterExportPropagatesRunnerError checks runner failures surface
// unchanged, still carrying their category.
func TestExporterExportPropagatesRunnerError(t *testing.T) {
	root := t.TempDir()
	inputPath := filepath.Join(root, "brochure.indd")
	mustWriteFile(t, inputPath, "doc")

	runner := &fakeScriptRunner{
		run: func(ctx context.Context, script string) (ProcessLog, error) {
			return ProcessLog{ExitCode: -1}, &ConversionError{
				Kind:    KindTimeout,
				Phase:   "process execution",
				Message: "export did not finish within 5m0s",
			}
		},
	}
	exporter := NewExporterForTests(runner, os.Stat, os.MkdirAll)

	_, err := exporter.Export(context.Background(), Request{
		InputPath: inputPath,
		OutputDir: filepath.Join(root, "out"),
	})
	if KindOf(err) != KindTimeout {
		t.Fatalf("kind = %s, want %s", KindOf(err), KindTimeout)
	}
}

// TestExporterExportOutputDirCreateFailure checks mkdir errors are validation
// failures, not execution failures.
func TestExporterExportOutputDirCreateFailure(t *testing.T) {
	root := t.TempDir()
	inputPath := filepath.Join(root, "brochure.indd")
	mustWriteFile(t, inputPath, "doc")

	exporter := NewExporterForTests(&fakeScriptRunner{}, os.Stat,
		func(string, os.FileMode) error { return errors.New("read-only filesystem") },
	)

	_, err := exporter.Export(context.Background(), Request{
		InputPath: inputPath,
		OutputDir: filepath.Join(root, "out"),
	})
	if KindOf(err) != KindValidation {
		t.Fatalf("kind = %s, want %s", KindOf(err), KindValidation)
	}
}

// TestOutputPathFor checks PDF name derivation from the document name.
func TestOutputPathFor(t *testing.T) {
	got := OutputPathFor("/in/annual report.idml", "/out")
	if got != filepath.Join("/out", "annual report.pdf") {
		t.Fatalf("path = %q", got)
	}

	got = OutputPathFor("/in/.indd", "/out")
	if got != filepath.Join("/out", "export.pdf") {
		t.Fatalf("extension-only name: path = %q", got)
	}
}

// mustWriteFile creates parent directory and writes file content.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir parent: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
