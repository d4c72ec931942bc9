// Package archive safely expands uploaded ZIP payloads into the set of
// document entries worth treating as essays.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotZip indicates the payload could not be parsed as a ZIP container.
// Callers must distinguish this from an archive that parsed but held no
// usable documents, which Expand reports as an empty result with a nil error.
var ErrNotZip = errors.New("payload is not a valid ZIP archive")

// Entry is a single archive member eligible for essay creation. Name carries
// only the base filename; nested directory structure is discarded.
type Entry struct {
	Name string
	Data []byte
}

var documentExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".txt":  {},
}

// AllowedDocument reports whether name carries an extraction-capable
// extension. The check is case-insensitive.
func AllowedDocument(name string) bool {
	_, ok := documentExtensions[strings.ToLower(path.Ext(name))]
	return ok
}

// Expand enumerates the eligible entries of a ZIP payload in archive order.
// Directory markers, hidden files, macOS resource-fork metadata and entries
// without an allow-listed document extension are silently dropped. Entries
// with the same base name in different folders are kept as distinct results.
func Expand(data []byte) ([]Entry, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ErrNotZip
	}

	var entries []Entry
	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !eligible(file.Name) {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, ErrNotZip
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, ErrNotZip
		}

		entries = append(entries, Entry{Name: path.Base(file.Name), Data: content})
	}

	return entries, nil
}

func eligible(name string) bool {
	cleaned := strings.ReplaceAll(name, `\`, "/")
	if strings.Contains(cleaned, "__MACOSX/") {
		return false
	}

	base := path.Base(strings.TrimSuffix(cleaned, "/"))
	if base == "" || base == "." || base == "/" {
		return false
	}
	if strings.HasPrefix(base, ".") {
		return false
	}

	return AllowedDocument(base)
}
