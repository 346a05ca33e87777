// Package progress renders download job events for the command line.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/sgaunet/s3grab/pkg/downloader"
)

// Renderer consumes the events of a job until the channel is closed and
// returns the report carried by the DoneEvent.
type Renderer interface {
	Render(events <-chan downloader.Event) *downloader.Report
}

// Bar draws a 0-100 progress bar.
type Bar struct {
	w           io.Writer
	description string
}

// NewBar returns a Bar writing to w.
func NewBar(w io.Writer, description string) *Bar {
	return &Bar{w: w, description: description}
}

// Render implements Renderer.
func (b *Bar) Render(events <-chan downloader.Event) *downloader.Report {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(b.description),
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(b.w, "\n")
		}),
	)

	var report *downloader.Report
	for ev := range events {
		switch e := ev.(type) {
		case downloader.ProgressEvent:
			bar.Describe(fmt.Sprintf("%s %d/%d", b.description, e.Processed, e.Total))
			_ = bar.Set(int(e.Percent))
		case downloader.DoneEvent:
			report = e.Report
		}
	}

	if report != nil && report.Outcome == downloader.OutcomeCompleted {
		_ = bar.Finish()
	} else {
		_ = bar.Exit()
		fmt.Fprint(b.w, "\n")
	}
	return report
}

// Log reports progress through a logger, for output that is not a terminal.
type Log struct {
	log *slog.Logger
}

// NewLog returns a Log renderer.
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

// Render implements Renderer.
func (l *Log) Render(events <-chan downloader.Event) *downloader.Report {
	var report *downloader.Report
	for ev := range events {
		switch e := ev.(type) {
		case downloader.ProgressEvent:
			l.log.Info("Progress",
				slog.Int("processed", e.Processed),
				slog.Int("total", e.Total),
				slog.Float64("percent", e.Percent))
		case downloader.DoneEvent:
			report = e.Report
			l.log.Info("Done",
				slog.String("outcome", report.Outcome.String()),
				slog.Int("succeeded", report.Succeeded),
				slog.Int("failed", len(report.Failed)))
		}
	}
	return report
}
