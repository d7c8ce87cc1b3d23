package convert

import (
	"fmt"
	"strings"
)

// The generated scripts are a wire format between this service and the
// InDesign scripting host. The ERROR: marker, the suppressed-dialog
// preference, and the close/quit error branches must stay byte-compatible
// with what the process runner scans for.

// exportScriptTemplate drives one document export: suppress all dialogs,
// open, export every page with the default high quality preset, close
// without saving, quit. The catch branch tears the application down and
// re-signals with the ERROR: marker so a zero exit code cannot mask a
// failed export.
const exportScriptTemplate = `app.scriptPreferences.userInteractionLevel = UserInteractionLevels.NEVER_INTERACT;
var doc = null;
try {
    doc = app.open(File("%s"), false);
    app.pdfExportPreferences.pageRange = PageRange.ALL_PAGES;
    doc.exportFile(ExportFormat.PDF_TYPE, File("%s"), false, app.pdfExportPresets.itemByName("[High Quality Print]"));
    doc.close(SaveOptions.NO);
    app.quit(SaveOptions.NO);
} catch (e) {
    try { if (doc !== null) { doc.close(SaveOptions.NO); } } catch (closeErr) {}
    try { app.quit(SaveOptions.NO); } catch (quitErr) {}
    throw new Error("ERROR: export failed: " + e.message);
}
`

// wrapperScriptTemplate submits the ExtendScript file to InDesign through
// the macOS scripting bridge. Failures are mirrored to stderr with the
// ERROR: marker and re-raised so osascript exits nonzero.
const wrapperScriptTemplate = `on run
	try
		tell application id "com.adobe.InDesign"
			do script (POSIX file "%s") language javascript
		end tell
	on error errorMessage
		log "ERROR: " & errorMessage
		error errorMessage
	end try
end run
`

// GenerateExportScript renders the ExtendScript for one input document and
// output PDF path. Pure templating: same inputs produce identical text.
func GenerateExportScript(inputPath, outputPath string) string {
	return fmt.Sprintf(exportScriptTemplate, scriptPath(inputPath), scriptPath(outputPath))
}

// GenerateWrapperScript renders the AppleScript wrapper for a written
// ExtendScript file.
func GenerateWrapperScript(jsxPath string) string {
	return fmt.Sprintf(wrapperScriptTemplate, scriptPath(jsxPath))
}

// scriptPath normalizes a host path into the forward-slash, quote-escaped
// form the scripting runtime expects.
func scriptPath(path string) string {
	normalized := strings.ReplaceAll(path, `\`, "/")
	return strings.ReplaceAll(normalized, `"`, `\"`)
}
