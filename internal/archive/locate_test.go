package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestLocateDocumentFindsInddInNestedDirectory checks recursive discovery.
func TestLocateDocumentFindsInddInNestedDirectory(t *testing.T) {
	root := t.TempDir()
	docPath := filepath.Join(root, "package", "brochure.indd")
	mustWriteFile(t, docPath, "doc")
	mustWriteFile(t, filepath.Join(root, "package", "links", "photo.jpg"), "img")

	found, err := LocateDocument(root)
	if err != nil {
		t.Fatalf("LocateDocument() error = %v", err)
	}
	if found != docPath {
		t.Fatalf("found = %q, want %q", found, docPath)
	}
}

// TestLocateDocumentAcceptsIDML checks the second document format.
func TestLocateDocumentAcceptsIDML(t *testing.T) {
	root := t.TempDir()
	docPath := filepath.Join(root, "layout.IDML")
	mustWriteFile(t, docPath, "doc")

	found, err := LocateDocument(root)
	if err != nil {
		t.Fatalf("LocateDocument() error = %v", err)
	}
	if found != docPath {
		t.Fatalf("found = %q, want %q", found, docPath)
	}
}

// TestLocateDocumentSkipsMetadataAndHiddenEntries checks filtering rules.
func TestLocateDocumentSkipsMetadataAndHiddenEntries(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "__MACOSX", "shadow.indd"), "meta")
	mustWriteFile(t, filepath.Join(root, ".hidden", "other.indd"), "hidden")
	mustWriteFile(t, filepath.Join(root, ".DS_Store.indd"), "hidden")
	docPath := filepath.Join(root, "real.indd")
	mustWriteFile(t, docPath, "doc")

	found, err := LocateDocument(root)
	if err != nil {
		t.Fatalf("LocateDocument() error = %v", err)
	}
	if found != docPath {
		t.Fatalf("found = %q, want %q", found, docPath)
	}
}

// TestLocateDocumentPicksLexicallyFirstCandidate checks the tie-break for
// archives containing multiple documents.
func TestLocateDocumentPicksLexicallyFirstCandidate(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "a-cover.indd")
	mustWriteFile(t, first, "doc")
	mustWriteFile(t, filepath.Join(root, "z-body.indd"), "doc")

	found, err := LocateDocument(root)
	if err != nil {
		t.Fatalf("LocateDocument() error = %v", err)
	}
	if found != first {
		t.Fatalf("found = %q, want %q", found, first)
	}
}

// TestLocateDocumentReturnsErrNoDocument checks the empty-archive error.
func TestLocateDocumentReturnsErrNoDocument(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "readme.txt"), "text")
	mustWriteFile(t, filepath.Join(root, "preview.pdf"), "pdf")

	_, err := LocateDocument(root)
	if !errors.Is(err, ErrNoDocument) {
		t.Fatalf("error = %v, want ErrNoDocument", err)
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
