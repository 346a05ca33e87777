// Package downloader expands a selection of files and folders into object
// keys and copies them to a local directory.
package downloader

import (
	"strings"

	"github.com/sgaunet/s3grab/pkg/catalog"
)

// Item is one selected file (full key) or folder (full prefix).
type Item struct {
	Kind catalog.Kind `json:"kind"`
	Path string       `json:"path"`
}

// IsFolder reports whether the item selects a whole prefix.
func (i Item) IsFolder() bool {
	return i.Kind == catalog.KindFolder
}

// Selection is the ordered set of items to download.
type Selection []Item

// ParseItem reads a key or prefix as typed by a user. A trailing "/" selects a folder.
func ParseItem(s string) Item {
	if strings.HasSuffix(s, "/") {
		return Item{Kind: catalog.KindFolder, Path: s}
	}
	return Item{Kind: catalog.KindFile, Path: s}
}

// ParseItems applies ParseItem to every argument, skipping empty ones.
func ParseItems(args []string) Selection {
	sel := make(Selection, 0, len(args))
	for _, a := range args {
		if a == "" {
			continue
		}
		sel = append(sel, ParseItem(a))
	}
	return sel
}

// FromEntries selects catalog entries as they are.
func FromEntries(entries []catalog.Entry) Selection {
	sel := make(Selection, 0, len(entries))
	for _, e := range entries {
		sel = append(sel, Item{Kind: e.Kind, Path: e.Path})
	}
	return sel
}
