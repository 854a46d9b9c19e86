package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/docrag/internal/models"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	content := []byte("Hello world\nLine 2")
	got, err := e.ExtractBytes(content, ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Hello world\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainUTF8(t *testing.T) {
	e := NewExtractor()
	content := []byte("caf\xc3\xa9") // valid UTF-8
	got, err := e.ExtractBytes(content, ".md")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "café" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	content := []byte("hello\x80world") // invalid UTF-8
	got, err := e.ExtractBytes(content, ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "hello\uFFFDworld" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainBOMAndNUL(t *testing.T) {
	e := NewExtractor()
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("annual\x00leave")...)
	got, err := e.ExtractBytes(content, ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "annual leave" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_invalidPDF(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractBytes([]byte("not a pdf"), ".pdf")
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExtractor_allowedExtensions(t *testing.T) {
	pdfOnly := NewExtractor("pdf")
	if !pdfOnly.Supports(".PDF") {
		t.Error("expected .PDF to be supported")
	}
	if pdfOnly.Supports(".txt") {
		t.Error(".txt should not be allowed")
	}
	if _, err := pdfOnly.ExtractBytes([]byte("x"), ".txt"); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	withDocx := NewExtractor(".pdf", ".docx")
	if withDocx.Supports(".docx") {
		t.Error(".docx has no extractor and must not be reported as supported")
	}
}

func TestExtract_file(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(path, []byte("# Notes\nsome text"), 0600); err != nil {
		t.Fatal(err)
	}
	e := NewExtractor()
	got, err := e.Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "# Notes\nsome text" {
		t.Errorf("got %q", got)
	}

	if _, err := e.Extract(filepath.Join(dir, "sheet.xlsx")); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unsupported type, got %v", err)
	}
	if _, err := e.Extract(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
