package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sgaunet/s3grab/pkg/app"
	"github.com/sgaunet/s3grab/pkg/downloader"
)

// ErrDownloadFailures is returned when at least one file could not be downloaded.
var ErrDownloadFailures = errors.New("some files could not be downloaded")

func newDownloadCmd(e *env) *cobra.Command {
	var (
		dest        string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "download BUCKET ITEM...",
		Short: "Download files and folders",
		Long: `Download files and folders, keeping the layout of the keys below the
destination directory. An item ending with "/" is a folder and is downloaded
recursively.

Ctrl-C stops the download after the file in progress, a second Ctrl-C
aborts that file too.

Example:
  s3grab download backups db/2024/ README.md --dest ./mirror`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("concurrency") {
				e.cfg.Concurrency = concurrency
			}
			store, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			return e.download(cmd.Context(), cmd.ErrOrStderr(), cmd.OutOrStdout(), store,
				args[0], downloader.ParseItems(args[1:]), dest)
		},
	}
	cmd.Flags().StringVarP(&dest, "dest", "d", ".", "Destination directory")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "Number of files downloaded at once")
	return cmd
}

// download runs one job in the foreground and prints its report.
func (e *env) download(
	ctx context.Context,
	progressOut, out io.Writer,
	store app.Store,
	bucket string,
	sel downloader.Selection,
	dest string,
) error {
	engine := downloader.NewEngine(store)
	engine.SetLogger(e.log)
	engine.SetConcurrency(e.cfg.Concurrency)
	runner := downloader.NewRunner(engine)
	runner.SetLogger(e.log)

	ctx, abort := context.WithCancel(ctx)
	defer abort()

	job, err := runner.Start(ctx, bucket, sel, dest)
	if err != nil {
		return err
	}

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		received := 0
		for {
			select {
			case <-sigs:
				received++
				if received == 1 {
					fmt.Fprintln(progressOut, "\nStopping after the current file, Ctrl-C again to abort it")
					job.Cancel()
				} else {
					abort()
				}
			case <-job.Done():
				return
			}
		}
	}()

	report := e.renderer(progressOut, bucket).Render(job.Events())
	return printReport(out, report)
}

func printReport(w io.Writer, report *downloader.Report) error {
	switch report.Outcome {
	case downloader.OutcomeCanceled:
		fmt.Fprintf(w, "Canceled: %d of %d files processed, %d downloaded\n",
			report.Processed, report.Total, report.Succeeded)
	default:
		fmt.Fprintf(w, "Done: %d of %d files downloaded\n", report.Succeeded, report.Total)
	}
	if len(report.Failed) == 0 {
		return nil
	}
	fmt.Fprintf(w, "%d failed:\n", len(report.Failed))
	for _, f := range report.Failed {
		fmt.Fprintf(w, "  %s: %v\n", f.Key, f.Err)
	}
	return fmt.Errorf("%w: %d of %d", ErrDownloadFailures, len(report.Failed), report.Total)
}
