package convert

import (
	"strings"
	"testing"
)

// TestGenerateExportScriptContent checks the non-negotiable script parts:
// suppressed dialogs, both paths, the full page range, and the error marker.
func TestGenerateExportScriptContent(t *testing.T) {
	script := GenerateExportScript("/work/in/brochure.indd", "/work/out/brochure.pdf")

	for _, want := range []string{
		"UserInteractionLevels.NEVER_INTERACT",
		`app.open(File("/work/in/brochure.indd"), false)`,
		"PageRange.ALL_PAGES",
		`File("/work/out/brochure.pdf")`,
		"[High Quality Print]",
		"doc.close(SaveOptions.NO)",
		"app.quit(SaveOptions.NO)",
		`"ERROR: export failed: "`,
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}
}

// TestGenerateExportScriptIsDeterministic checks pure templating.
func TestGenerateExportScriptIsDeterministic(t *testing.T) {
	a := GenerateExportScript("/in.indd", "/out.pdf")
	b := GenerateExportScript("/in.indd", "/out.pdf")
	if a != b {
		t.Fatal("same inputs produced different scripts")
	}
}

// TestGenerateExportScriptNormalizesWindowsPaths checks backslash handling.
func TestGenerateExportScriptNormalizesWindowsPaths(t *testing.T) {
	script := GenerateExportScript(`C:\work\in\doc.indd`, `C:\work\out\doc.pdf`)

	if strings.Contains(script, `\w`) {
		t.Fatalf("script contains unconverted backslash path:\n%s", script)
	}
	if !strings.Contains(script, `File("C:/work/in/doc.indd")`) {
		t.Fatalf("input path not normalized:\n%s", script)
	}
	if !strings.Contains(script, `File("C:/work/out/doc.pdf")`) {
		t.Fatalf("output path not normalized:\n%s", script)
	}
}

// TestGenerateExportScriptEscapesQuotes checks quote-safe embedding.
func TestGenerateExportScriptEscapesQuotes(t *testing.T) {
	script := GenerateExportScript(`/work/he said "hi".indd`, "/out/x.pdf")
	if !strings.Contains(script, `he said \"hi\".indd`) {
		t.Fatalf("quotes not escaped:\n%s", script)
	}
}

// TestGenerateWrapperScriptContent checks the scripting-bridge submission
// and the stderr error mirroring.
func TestGenerateWrapperScriptContent(t *testing.T) {
	script := GenerateWrapperScript("/tmp/scripts/export-1.jsx")

	for _, want := range []string{
		`tell application id "com.adobe.InDesign"`,
		`do script (POSIX file "/tmp/scripts/export-1.jsx") language javascript`,
		`log "ERROR: " & errorMessage`,
		"error errorMessage",
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("wrapper missing %q:\n%s", want, script)
		}
	}
}
