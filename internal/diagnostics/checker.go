// Package diagnostics validates the external application and required
// filesystem paths at startup and on demand.
package diagnostics

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"indesign-pdf-service/internal/domain"
)

// availabilityProbe is the side-channel existence check for the external
// application binary.
type availabilityProbe interface {
	Available() bool
	BinaryPath() string
}

// Checker runs the startup checks for the export service.
type Checker struct {
	goos  string
	probe availabilityProbe

	lookPath   func(string) (string, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker(goos string, probe availabilityProbe) *Checker {
	return &Checker{
		goos:       goos,
		probe:      probe,
		lookPath:   exec.LookPath,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all checks and returns a combined report.
func (c *Checker) Run(uploadDir, scratchDir string) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkApplication(),
		c.checkScriptingHost(),
		c.checkWritableDir("upload_dir", "Upload directory", uploadDir),
		c.checkWritableDir("scratch_dir", "Scratch directory", scratchDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkApplication verifies the InDesign binary exists at its resolved path.
func (c *Checker) checkApplication() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "indesign_binary",
		Name: "Adobe InDesign",
	}

	if !c.probe.Available() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("InDesign not found at %s", c.probe.BinaryPath())
		item.Hint = "Install Adobe InDesign or set indesign.binary_path (INDESIGN_BINARY_PATH)."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", c.probe.BinaryPath())
	return item
}

// checkScriptingHost verifies the OS scripting host needed to submit
// scripts to InDesign on macOS. Windows invokes the binary directly.
func (c *Checker) checkScriptingHost() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "scripting_host",
		Name: "Scripting host",
	}

	switch c.goos {
	case "darwin":
		path, err := c.lookPath("osascript")
		if err != nil {
			item.Status = domain.DiagnosticStatusFail
			item.Message = "osascript not found in PATH"
			item.Hint = "osascript ships with macOS; check the PATH of the service user."
			return item
		}
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Found at %s", path)
	case "windows":
		item.Status = domain.DiagnosticStatusPass
		item.Message = "Not required; scripts are passed to InDesign directly"
	default:
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("InDesign automation is not supported on %s", c.goos)
	}
	return item
}

// checkWritableDir validates that a scratch location exists and is writable.
func (c *Checker) checkWritableDir(id, name, dir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   id,
		Name: name,
	}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("%s is not configured", name)
		return item
	}

	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create directory: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Directory is not writable: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	goos string,
	probe availabilityProbe,
	lookPath func(string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		goos:       goos,
		probe:      probe,
		lookPath:   lookPath,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
