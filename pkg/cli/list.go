package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sgaunet/s3grab/pkg/catalog"
	"github.com/sgaunet/s3grab/pkg/dto"
)

func newBucketsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "buckets",
		Short: "List the buckets of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			buckets, err := store.ListBuckets(cmd.Context())
			if err != nil {
				return err
			}
			printBuckets(cmd.OutOrStdout(), buckets)
			return nil
		},
	}
}

func newLsCmd(e *env) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "ls BUCKET [PREFIX]",
		Short: "List the folders and files directly under a prefix",
		Long: `List the folders and files directly under a prefix.

Example:
  s3grab ls backups
  s3grab ls backups db/2024/ --search dump`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 2 {
				prefix = normalizePrefix(args[1])
			}
			store, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			lister := catalog.NewLister(store)
			lister.SetLogger(e.log)
			folders, files, err := lister.ListChildren(cmd.Context(), args[0], prefix)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), catalog.Filter(folders, search), catalog.Filter(files, search))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show names containing this text (case insensitive)")
	return cmd
}

// normalizePrefix lets users omit the trailing slash of a folder.
func normalizePrefix(p string) string {
	p = strings.TrimLeft(p, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

func printBuckets(w io.Writer, buckets []dto.Bucket) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, b := range buckets {
		created := "-"
		if !b.CreationDate.IsZero() {
			created = b.CreationDate.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\n", b.Name, created)
	}
	_ = tw.Flush()
}

func printEntries(w io.Writer, folders, files []catalog.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range folders {
		fmt.Fprintf(tw, "%s/\t%s\t\n", f.Name(), f.HumanSize())
	}
	for _, f := range files {
		modified := "-"
		if !f.LastModified.IsZero() {
			modified = humanize.Time(f.LastModified)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name(), f.HumanSize(), modified)
	}
	_ = tw.Flush()
	if len(folders)+len(files) == 0 {
		fmt.Fprintln(w, "(empty)")
	}
}
