package convert

import "os"

// Probe reports whether the external InDesign application appears to be
// installed. It is a diagnostics side channel, not part of the conversion
// path: a true result does not guarantee an export will succeed, since it
// checks neither executability nor licensing nor runtime health.
type Probe struct {
	goos       string
	binaryPath string
	stat       func(string) (os.FileInfo, error)
}

// NewProbe builds a probe for the given platform and resolved binary path.
func NewProbe(goos, binaryPath string) *Probe {
	return &Probe{goos: goos, binaryPath: binaryPath, stat: os.Stat}
}

// BinaryPath returns the resolved application path the probe checks.
func (p *Probe) BinaryPath() string {
	return p.binaryPath
}

// Available reports whether a filesystem entry exists at the binary path.
// It never fails: unsupported platforms and filesystem access errors both
// report false.
func (p *Probe) Available() bool {
	if p.goos != "darwin" && p.goos != "windows" {
		return false
	}
	if p.binaryPath == "" {
		return false
	}
	_, err := p.stat(p.binaryPath)
	return err == nil
}

// NewProbeForTests builds a probe with an injectable stat dependency.
func NewProbeForTests(goos, binaryPath string, stat func(string) (os.FileInfo, error)) *Probe {
	return &Probe{goos: goos, binaryPath: binaryPath, stat: stat}
}
