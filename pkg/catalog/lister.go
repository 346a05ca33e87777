package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sgaunet/s3grab/pkg/dto"
)

// PrefixLister is the delimiter listing of the object store.
type PrefixLister interface {
	ListPrefix(ctx context.Context, bucket, prefix string) ([]string, []dto.S3Object, error)
}

// Lister builds catalog views of a prefix.
type Lister struct {
	store PrefixLister
	log   *slog.Logger
}

// NewLister returns a Lister reading from store.
func NewLister(store PrefixLister) *Lister {
	return &Lister{
		store: store,
		log:   slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger
func (l *Lister) SetLogger(log *slog.Logger) {
	l.log = log
}

// ListChildren returns the folders and files directly under prefix.
// On failure both slices are empty (never nil) and the error is returned.
func (l *Lister) ListChildren(ctx context.Context, bucket, prefix string) ([]Entry, []Entry, error) {
	prefixes, objects, err := l.store.ListPrefix(ctx, bucket, prefix)
	if err != nil {
		l.log.Error("Error listing objects",
			slog.String("bucket", bucket),
			slog.String("prefix", prefix),
			slog.String("error", err.Error()))
		return []Entry{}, []Entry{}, err
	}

	folders := make([]Entry, 0, len(prefixes))
	for _, p := range prefixes {
		folders = append(folders, Folder(p))
	}

	files := make([]Entry, 0, len(objects))
	for _, obj := range objects {
		if !isDirectChild(prefix, obj) {
			continue
		}
		files = append(files, File(obj.Key, obj.Size, obj.LastModified))
	}

	l.log.Debug("Listed children",
		slog.String("prefix", prefix),
		slog.Int("folders", len(folders)),
		slog.Int("files", len(files)))
	return folders, files, nil
}

// isDirectChild rejects the prefix marker itself, folder markers and
// anything nested below another folder.
func isDirectChild(prefix string, obj dto.S3Object) bool {
	if obj.Key == prefix || obj.IsFolderMarker() {
		return false
	}
	rel, ok := strings.CutPrefix(obj.Key, prefix)
	if !ok {
		return false
	}
	return !strings.Contains(rel, "/")
}
