// Package navigator keeps the current bucket and folder of a browsing session.
package navigator

import (
	"errors"
	"strings"

	"github.com/sgaunet/s3grab/pkg/catalog"
)

var (
	// ErrNotAFolder is returned when entering an entry that is a file.
	ErrNotAFolder = errors.New("entry is not a folder")
	// ErrNotDirectChild is returned when the folder is not directly below the current prefix.
	ErrNotDirectChild = errors.New("folder is not a direct child of the current prefix")
)

// Navigator maps folder moves to prefix changes. It never touches the network.
//
// The prefix is always "" or ends with "/".
type Navigator struct {
	bucket string
	prefix string
	crumbs []string
}

// New returns a Navigator with no bucket selected.
func New() *Navigator {
	return &Navigator{}
}

// SelectBucket switches to name and goes back to its root.
func (n *Navigator) SelectBucket(name string) {
	n.bucket = name
	n.prefix = ""
	n.crumbs = nil
}

// EnterFolder descends into entry, which must be a folder directly below
// the current prefix.
func (n *Navigator) EnterFolder(entry catalog.Entry) error {
	if !entry.IsFolder() {
		return ErrNotAFolder
	}
	rel, ok := strings.CutPrefix(entry.Path, n.prefix)
	if !ok || !strings.HasSuffix(rel, "/") {
		return ErrNotDirectChild
	}
	segment := strings.TrimSuffix(rel, "/")
	if strings.Contains(segment, "/") {
		return ErrNotDirectChild
	}
	n.crumbs = append(n.crumbs, segment)
	n.prefix = entry.Path
	return nil
}

// GoUp moves to the parent folder. It does nothing at the bucket root.
func (n *Navigator) GoUp() {
	if len(n.crumbs) == 0 {
		return
	}
	n.crumbs = n.crumbs[:len(n.crumbs)-1]
	n.prefix = joinPrefix(n.crumbs)
}

// Bucket returns the selected bucket.
func (n *Navigator) Bucket() string {
	return n.bucket
}

// Prefix returns the current prefix.
func (n *Navigator) Prefix() string {
	return n.prefix
}

// Breadcrumb returns a copy of the path segments.
func (n *Navigator) Breadcrumb() []string {
	return append([]string(nil), n.crumbs...)
}

// PathLabel renders the breadcrumb as "/seg1/seg2".
func (n *Navigator) PathLabel() string {
	return "/" + strings.Join(n.crumbs, "/")
}

func joinPrefix(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	return strings.Join(segments, "/") + "/"
}
