package archive

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// ErrNoDocument is returned when the extracted tree holds no InDesign file.
var ErrNoDocument = errors.New("no InDesign file (.indd or .idml) found in archive")

// metadataDir is the zip metadata folder macOS Finder adds to archives.
const metadataDir = "__MACOSX"

// documentExtensions are the accepted InDesign document formats.
var documentExtensions = map[string]bool{
	".indd": true,
	".idml": true,
}

// LocateDocument walks root and returns the first InDesign document in
// lexical path order. Hidden directories and the archive metadata folder
// are skipped. Picking the lexically first match is a deliberate tie-break
// for archives that contain more than one candidate.
func LocateDocument(root string) (string, error) {
	var found string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || name == metadataDir) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if documentExtensions[strings.ToLower(filepath.Ext(name))] {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if found == "" {
		return "", ErrNoDocument
	}
	return found, nil
}
