package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sgaunet/s3grab/pkg/app"
	"github.com/sgaunet/s3grab/pkg/catalog"
	"github.com/sgaunet/s3grab/pkg/downloader"
	"github.com/sgaunet/s3grab/pkg/navigator"
)

var (
	errQuit = errors.New("quit")
	// ErrNoBucket is returned by shell commands that need a selected bucket.
	ErrNoBucket = errors.New("no bucket selected, use: bucket NAME")
	// ErrNoSuchEntry is returned when a name is not in the current folder.
	ErrNoSuchEntry = errors.New("no such entry in the current folder")
)

func newBrowseCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [BUCKET]",
		Short: "Interactive shell to walk a bucket and download from it",
		Long: `Interactive shell to walk a bucket and download from it.

Commands:
  buckets              list buckets
  bucket NAME          select a bucket
  ls [TERM]            list the current folder, optionally filtered
  cd NAME | cd ..      enter a folder, or go up
  up                   go up one folder
  pwd                  print the current location
  get NAME... DEST     download entries of the current folder to DEST
  quit                 leave`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			sh := newShell(e, store, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if len(args) == 1 {
				sh.nav.SelectBucket(args[0])
			}
			return sh.run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

// shell keeps the browsing state between lines.
type shell struct {
	env    *env
	store  app.Store
	lister *catalog.Lister
	nav    *navigator.Navigator
	out    io.Writer
	errOut io.Writer

	// listing of the current folder, refreshed on every move
	folders []catalog.Entry
	files   []catalog.Entry
	listed  bool
}

func newShell(e *env, store app.Store, out, errOut io.Writer) *shell {
	lister := catalog.NewLister(store)
	lister.SetLogger(e.log)
	return &shell{
		env:    e,
		store:  store,
		lister: lister,
		nav:    navigator.New(),
		out:    out,
		errOut: errOut,
	}
}

func (s *shell) prompt() {
	if s.nav.Bucket() == "" {
		fmt.Fprint(s.out, "s3grab> ")
		return
	}
	fmt.Fprintf(s.out, "%s:%s> ", s.nav.Bucket(), s.nav.PathLabel())
}

func (s *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	s.prompt()
	for scanner.Scan() {
		args := strings.Fields(scanner.Text())
		if len(args) > 0 {
			err := s.exec(ctx, args)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(s.errOut, "error:", err)
			}
		}
		s.prompt()
	}
	fmt.Fprintln(s.out)
	return scanner.Err()
}

// exec parses one line with a fresh command tree.
func (s *shell) exec(ctx context.Context, args []string) error {
	root := &cobra.Command{
		Use:           "",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(s.out)
	root.SetErr(s.errOut)
	root.AddCommand(
		&cobra.Command{
			Use:   "buckets",
			Short: "list buckets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				buckets, err := s.store.ListBuckets(cmd.Context())
				if err != nil {
					return err
				}
				printBuckets(s.out, buckets)
				return nil
			},
		},
		&cobra.Command{
			Use:   "bucket NAME",
			Short: "select a bucket",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s.nav.SelectBucket(args[0])
				s.listed = false
				return s.refresh(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "ls [TERM]",
			Short: "list the current folder",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.refresh(cmd.Context()); err != nil {
					return err
				}
				term := ""
				if len(args) == 1 {
					term = args[0]
				}
				printEntries(s.out, catalog.Filter(s.folders, term), catalog.Filter(s.files, term))
				return nil
			},
		},
		&cobra.Command{
			Use:   "cd NAME",
			Short: "enter a folder",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if args[0] == ".." {
					return s.up(cmd.Context())
				}
				return s.cd(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "up",
			Short: "go up one folder",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return s.up(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "pwd",
			Short: "print the current location",
			Args:  cobra.NoArgs,
			Run: func(_ *cobra.Command, _ []string) {
				fmt.Fprintf(s.out, "%s:%s\n", s.nav.Bucket(), s.nav.PathLabel())
			},
		},
		&cobra.Command{
			Use:   "get NAME... DEST",
			Short: "download entries of the current folder",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return s.get(cmd.Context(), args[:len(args)-1], args[len(args)-1])
			},
		},
		&cobra.Command{
			Use:     "quit",
			Aliases: []string{"exit"},
			Short:   "leave",
			RunE: func(_ *cobra.Command, _ []string) error {
				return errQuit
			},
		},
	)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// refresh lists the current folder unless it is already known.
func (s *shell) refresh(ctx context.Context) error {
	if s.nav.Bucket() == "" {
		return ErrNoBucket
	}
	if s.listed {
		return nil
	}
	folders, files, err := s.lister.ListChildren(ctx, s.nav.Bucket(), s.nav.Prefix())
	s.folders, s.files = folders, files
	if err != nil {
		return err
	}
	s.listed = true
	return nil
}

func (s *shell) cd(ctx context.Context, name string) error {
	if err := s.refresh(ctx); err != nil {
		return err
	}
	entry, ok := find(s.folders, name)
	if !ok {
		if _, isFile := find(s.files, name); isFile {
			return navigator.ErrNotAFolder
		}
		return fmt.Errorf("%w: %s", ErrNoSuchEntry, name)
	}
	if err := s.nav.EnterFolder(entry); err != nil {
		return err
	}
	s.listed = false
	return s.refresh(ctx)
}

func (s *shell) up(ctx context.Context) error {
	if s.nav.Bucket() == "" {
		return ErrNoBucket
	}
	s.nav.GoUp()
	s.listed = false
	return s.refresh(ctx)
}

func (s *shell) get(ctx context.Context, names []string, dest string) error {
	if err := s.refresh(ctx); err != nil {
		return err
	}
	entries := make([]catalog.Entry, 0, len(names))
	for _, name := range names {
		entry, ok := find(s.folders, name)
		if !ok {
			entry, ok = find(s.files, name)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoSuchEntry, name)
		}
		entries = append(entries, entry)
	}
	err := s.env.download(ctx, s.errOut, s.out, s.store, s.nav.Bucket(), downloader.FromEntries(entries), dest)
	if errors.Is(err, ErrDownloadFailures) {
		// already reported
		return nil
	}
	return err
}

// find looks a name up, a trailing "/" is accepted for folders.
func find(entries []catalog.Entry, name string) (catalog.Entry, bool) {
	name = strings.TrimSuffix(name, "/")
	for _, e := range entries {
		if e.Name() == name {
			return e, true
		}
	}
	return catalog.Entry{}, false
}
