package aggregate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// FileRecord is the classified form of a candidate. Binary files carry no
// content and are never rendered.
type FileRecord struct {
	Path     string
	Ext      string // lower-cased, no leading dot, empty when none
	Size     int64
	Content  string
	IsBinary bool
}

// sniffLen bounds the prefix read for binary detection.
const sniffLen = 512

// binaryExtensions short-circuits content sniffing for well-known binary
// formats.
var binaryExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true,
	"ico": true, "pdf": true, "zip": true, "gz": true, "tar": true,
	"bz2": true, "xz": true, "7z": true, "exe": true, "dll": true,
	"so": true, "dylib": true, "bin": true, "o": true, "a": true,
	"class": true, "jar": true, "wasm": true, "woff": true, "woff2": true,
	"ttf": true, "otf": true, "mp3": true, "mp4": true, "avi": true,
	"mov": true, "sqlite": true, "db": true,
}

// Classifier turns candidates into file records: it detects binary content
// and reads the text payload. One file handle is open at a time, released
// before the next candidate.
type Classifier struct {
	logger *zap.Logger
}

func NewClassifier(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{logger: logger}
}

// Classify reads the candidate. With withContent false (dry runs) only the
// binary sniff is performed and Size comes from the walker's stat; otherwise
// text files are read fully and Size reflects the bytes actually read.
func (c *Classifier) Classify(cand Candidate, withContent bool) (FileRecord, error) {
	rec := FileRecord{
		Path: cand.Path,
		Ext:  fileExt(filepath.Base(cand.Path)),
		Size: cand.Size,
	}

	if binaryExtensions[rec.Ext] {
		rec.IsBinary = true
		return rec, nil
	}

	f, err := os.Open(cand.Path)
	if err != nil {
		return rec, fmt.Errorf("open %s: %w", cand.Path, err)
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return rec, fmt.Errorf("read %s: %w", cand.Path, err)
	}
	if looksBinary(buf[:n]) {
		rec.IsBinary = true
		return rec, nil
	}

	if !withContent {
		p := buf[:n]
		if n == sniffLen {
			p = trimPartialRune(p)
		}
		if !utf8.Valid(p) {
			return rec, fmt.Errorf("non-UTF-8 content in %s", cand.Path)
		}
		return rec, nil
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		return rec, fmt.Errorf("read %s: %w", cand.Path, err)
	}
	content := append(buf[:n], rest...)
	// Invalid UTF-8 cannot survive JSON encoding byte for byte, so such
	// files are skipped rather than admitted with mangled content.
	if !utf8.Valid(content) {
		return rec, fmt.Errorf("non-UTF-8 content in %s", cand.Path)
	}
	rec.Content = string(content)
	rec.Size = int64(len(content))
	return rec, nil
}

// trimPartialRune drops an incomplete trailing multi-byte sequence so a
// prefix cut mid-rune does not misreport a valid file.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax-1 && len(b) > 0; i++ {
		if r, size := utf8.DecodeLastRune(b); r != utf8.RuneError || size > 1 {
			break
		}
		b = b[:len(b)-1]
	}
	return b
}

// looksBinary applies the prefix heuristic: a NUL byte or more than 30%
// non-printable bytes marks the file binary. Empty files are text.
func looksBinary(prefix []byte) bool {
	if len(prefix) == 0 {
		return false
	}
	if bytes.IndexByte(prefix, 0) >= 0 {
		return true
	}
	nonPrintable := 0
	for _, b := range prefix {
		if !isPrintable(b) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(prefix)) > 0.3
}

// isPrintable checks if a byte represents a printable ASCII character.
func isPrintable(b byte) bool {
	return (b >= 32 && b < 127) || b == '\n' || b == '\r' || b == '\t' || b >= 128
}

// fileExt extracts the substring after the last '.' in the file name,
// lower-cased; empty when the name has no dot. A dotfile like ".env"
// reports its name body as the extension, so -e env matches .env too.
func fileExt(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
