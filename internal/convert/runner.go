package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// RunState models the external process lifecycle.
type RunState string

const (
	RunStateIdle      RunState = "idle"
	RunStateLaunching RunState = "launching"
	RunStateRunning   RunState = "running"
	RunStateSucceeded RunState = "succeeded"
	RunStateFailed    RunState = "failed"
	RunStateTimedOut  RunState = "timed_out"
)

// errorMarker is the literal prefix the generated script emits on failure.
// Exit code zero plus absence of this marker in the combined output is the
// only success signal the external application provides.
const errorMarker = "ERROR:"

// ProcessLog captures one external process invocation result.
type ProcessLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// Runner spawns the InDesign automation process for one script at a time
// and classifies its textual outcome.
type Runner struct {
	launcher launcher
	timeout  time.Duration
	grace    time.Duration

	stat   func(string) (os.FileInfo, error)
	remove func(string) error

	mu    sync.RWMutex
	state RunState
}

// NewRunner builds a runner with the spawn strategy for the given platform.
func NewRunner(goos, binaryPath, scratchDir string, timeout, grace time.Duration) (*Runner, error) {
	l, err := newLauncher(goos, binaryPath, scratchDir)
	if err != nil {
		return nil, err
	}

	return &Runner{
		launcher: l,
		timeout:  timeout,
		grace:    grace,
		stat:     os.Stat,
		remove:   os.Remove,
		state:    RunStateIdle,
	}, nil
}

// State returns the current lifecycle state.
func (r *Runner) State() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Runner) setState(state RunState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

// Run executes the generated script against the external application. A nil
// error means the classification rule passed: exit code zero and no ERROR:
// marker in the noise-filtered combined output. Script artifacts are
// deleted once the process reaches a terminal state, on every path.
func (r *Runner) Run(ctx context.Context, script string) (ProcessLog, error) {
	r.setState(RunStateLaunching)

	if _, err := r.stat(r.launcher.binary()); err != nil {
		r.setState(RunStateFailed)
		return ProcessLog{}, &ConversionError{
			Kind:    KindLaunch,
			Phase:   "process execution",
			Message: fmt.Sprintf("InDesign binary not found at %s", r.launcher.binary()),
			Err:     err,
		}
	}

	name, args, artifacts, err := r.launcher.prepare(script)
	if err != nil {
		r.setState(RunStateFailed)
		return ProcessLog{}, &ConversionError{
			Kind:    KindExecution,
			Phase:   "script generation",
			Message: "could not write automation script",
			Err:     err,
		}
	}
	defer r.removeArtifacts(artifacts)

	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		r.setState(RunStateFailed)
		return ProcessLog{Command: name, Args: args, ExitCode: -1}, &ConversionError{
			Kind:    KindLaunch,
			Phase:   "process execution",
			Message: fmt.Sprintf("failed to start %s", name),
			Err:     err,
		}
	}
	r.setState(RunStateRunning)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	timedOut := false
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		waitErr = r.terminate(cmd, done)
		r.setState(RunStateFailed)
		return r.processLog(cmd, &stdout, &stderr, exitCode(waitErr)), &ConversionError{
			Kind:    KindExecution,
			Phase:   "process execution",
			Message: "conversion aborted",
			Err:     ctx.Err(),
		}
	case <-time.After(r.timeout):
		timedOut = true
		waitErr = r.terminate(cmd, done)
	}

	log := r.processLog(cmd, &stdout, &stderr, exitCode(waitErr))

	if timedOut {
		r.setState(RunStateTimedOut)
		return log, &ConversionError{
			Kind:  KindTimeout,
			Phase: "process execution",
			Message: fmt.Sprintf(
				"export did not finish within %s; likely causes: missing fonts, missing linked assets, or a blocked interactive dialog",
				r.timeout,
			),
		}
	}

	if err := classifyOutcome(log.ExitCode, log.Stdout, log.Stderr); err != nil {
		r.setState(RunStateFailed)
		return log, err
	}

	r.setState(RunStateSucceeded)
	return log, nil
}

// terminate escalates from a graceful signal to a forced kill after the
// grace window. It returns the wait error so callers record the real exit
// status of the terminated process.
func (r *Runner) terminate(cmd *exec.Cmd, done <-chan error) error {
	if cmd.Process == nil {
		return nil
	}

	_ = cmd.Process.Signal(syscall.SIGTERM)
	select {
	case err := <-done:
		return err
	case <-time.After(r.grace):
		_ = cmd.Process.Kill()
		return <-done
	}
}

// removeArtifacts deletes generated script files. Failures, including
// already-deleted paths, are deliberately swallowed: cleanup is idempotent
// and must never mask the run outcome.
func (r *Runner) removeArtifacts(paths []string) {
	for _, path := range paths {
		_ = r.remove(path)
	}
}

// processLog assembles the invocation record for callers and the event feed.
func (r *Runner) processLog(cmd *exec.Cmd, stdout, stderr *bytes.Buffer, code int) ProcessLog {
	return ProcessLog{
		Command:  cmd.Path,
		Args:     cmd.Args[1:],
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
}

// NewRunnerForTests constructs a runner with injectable dependencies.
func NewRunnerForTests(
	l launcher,
	timeout time.Duration,
	grace time.Duration,
	stat func(string) (os.FileInfo, error),
	remove func(string) error,
) *Runner {
	return &Runner{
		launcher: l,
		timeout:  timeout,
		grace:    grace,
		stat:     stat,
		remove:   remove,
		state:    RunStateIdle,
	}
}

// exitCode extracts the process exit code from a Wait error.
func exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// classifyOutcome applies the textual success contract. The marker check
// runs before the exit code check so that an in-band script failure is
// reported with its own message even when the host exits zero.
func classifyOutcome(code int, stdout, stderr string) error {
	combined := stdout + "\n" + filterRuntimeNoise(stderr)
	if line := findMarkerLine(combined); line != "" {
		return &ConversionError{Kind: KindExecution, Phase: "process execution", Message: line}
	}
	if code != 0 {
		return &ConversionError{
			Kind:    KindExecution,
			Phase:   "process execution",
			Message: fmt.Sprintf("InDesign exited with code %d", code),
		}
	}
	return nil
}

// filterRuntimeNoise drops the benign duplicate-class warnings the macOS
// Objective-C runtime prints to stderr when InDesign loads its plug-ins.
// Without this filter a perfectly healthy export would be classified as
// failed whenever those warnings appear.
func filterRuntimeNoise(stderr string) string {
	lines := strings.Split(stderr, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "objc[") && strings.Contains(trimmed, "is implemented in both") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// findMarkerLine returns the first ERROR:-prefixed line in text.
func findMarkerLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, errorMarker) {
			return trimmed
		}
	}
	return ""
}
