// Package catalog lists the direct children of a prefix and filters them by name.
package catalog

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Kind tells folders and files apart.
type Kind int

const (
	// KindFolder is a common prefix, Path ends with "/".
	KindFolder Kind = iota
	// KindFile is an object, Path is its full key.
	KindFile
)

// ErrUnknownKind is returned when decoding a kind other than "folder" or "file".
var ErrUnknownKind = errors.New("unknown entry kind")

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// MarshalText encodes the kind as "folder" or "file".
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes "folder" or "file".
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "folder":
		*k = KindFolder
	case "file":
		*k = KindFile
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, b)
	}
	return nil
}

// Entry is one line of the catalog.
type Entry struct {
	Kind         Kind      `json:"kind"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// Folder builds a folder entry for prefix.
func Folder(prefix string) Entry {
	return Entry{Kind: KindFolder, Path: prefix}
}

// File builds a file entry.
func File(key string, size int64, lastModified time.Time) Entry {
	return Entry{Kind: KindFile, Path: key, Size: size, LastModified: lastModified}
}

// IsFolder reports whether e is a folder.
func (e Entry) IsFolder() bool {
	return e.Kind == KindFolder
}

// Name is the leaf name: the last segment of a folder, the base name of a file.
func (e Entry) Name() string {
	if e.IsFolder() {
		return path.Base(strings.TrimSuffix(e.Path, "/"))
	}
	return path.Base(e.Path)
}

// HumanSize formats the size for display; folders have none.
func (e Entry) HumanSize() string {
	if e.IsFolder() {
		return "-"
	}
	return humanize.IBytes(uint64(max(e.Size, 0)))
}

// Filter keeps the entries whose name contains term, ignoring case.
// An empty term returns entries unchanged.
func Filter(entries []Entry, term string) []Entry {
	if term == "" {
		return entries
	}
	term = strings.ToLower(term)
	result := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name()), term) {
			result = append(result, e)
		}
	}
	return result
}
