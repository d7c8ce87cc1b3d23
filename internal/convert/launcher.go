package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// launcher prepares the platform-specific invocation for one generated
// script. The strategy is selected once at startup; the runner stays free
// of per-platform branching.
type launcher interface {
	// binary returns the external application path verified before launch.
	binary() string
	// prepare writes script artifacts to the scratch location and returns
	// the command to spawn plus the files to delete once the process
	// reaches a terminal state.
	prepare(script string) (name string, args []string, artifacts []string, err error)
}

// newLauncher selects the spawn strategy for the host platform.
func newLauncher(goos, binaryPath, scratchDir string) (launcher, error) {
	switch goos {
	case "darwin":
		return &osascriptLauncher{binaryPath: binaryPath, scratchDir: scratchDir}, nil
	case "windows":
		return &directLauncher{binaryPath: binaryPath, scratchDir: scratchDir}, nil
	default:
		return nil, fmt.Errorf("InDesign automation is not supported on %s", goos)
	}
}

// osascriptLauncher wraps the ExtendScript in an AppleScript file and runs
// it through the system scripting host. InDesign on macOS accepts scripts
// only through its scripting bridge, not as command-line arguments.
type osascriptLauncher struct {
	binaryPath string
	scratchDir string
}

func (l *osascriptLauncher) binary() string { return l.binaryPath }

func (l *osascriptLauncher) prepare(script string) (string, []string, []string, error) {
	id := uuid.New().String()
	jsxPath := filepath.Join(l.scratchDir, "export-"+id+".jsx")
	wrapperPath := filepath.Join(l.scratchDir, "export-"+id+".applescript")

	if err := writeScript(jsxPath, script); err != nil {
		return "", nil, nil, err
	}
	if err := writeScript(wrapperPath, GenerateWrapperScript(jsxPath)); err != nil {
		_ = os.Remove(jsxPath)
		return "", nil, nil, err
	}

	return "osascript", []string{wrapperPath}, []string{jsxPath, wrapperPath}, nil
}

// directLauncher passes the ExtendScript path straight to the InDesign
// binary on its command line.
type directLauncher struct {
	binaryPath string
	scratchDir string
}

func (l *directLauncher) binary() string { return l.binaryPath }

func (l *directLauncher) prepare(script string) (string, []string, []string, error) {
	jsxPath := filepath.Join(l.scratchDir, "export-"+uuid.New().String()+".jsx")
	if err := writeScript(jsxPath, script); err != nil {
		return "", nil, nil, err
	}
	return l.binaryPath, []string{jsxPath}, []string{jsxPath}, nil
}

// writeScript creates the scratch directory if needed and writes one
// script artifact.
func writeScript(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write automation script: %w", err)
	}
	return nil
}
