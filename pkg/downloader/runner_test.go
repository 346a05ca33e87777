package downloader_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s3grab/pkg/downloader"
)

func drain(t *testing.T, job *downloader.Job) ([]downloader.ProgressEvent, *downloader.Report) {
	t.Helper()
	var (
		progress []downloader.ProgressEvent
		report   *downloader.Report
	)
	for ev := range job.Events() {
		switch e := ev.(type) {
		case downloader.ProgressEvent:
			require.Nil(t, report, "progress after done")
			progress = append(progress, e)
		case downloader.DoneEvent:
			require.Nil(t, report, "two done events")
			report = e.Report
		}
	}
	require.NotNil(t, report)
	return progress, report
}

func TestRunner_StartStreamsEvents(t *testing.T) {
	store := newFakeStore("logs/a.log", "logs/b.log", "logs/2024/c.log")
	runner := downloader.NewRunner(downloader.NewEngine(store))
	dest := t.TempDir()

	job, err := runner.Start(context.Background(), "bucket", downloader.Selection{downloader.ParseItem("logs/")}, dest)
	require.NoError(t, err)
	_, err = uuid.Parse(job.ID())
	require.NoError(t, err)

	progress, report := drain(t, job)
	require.Len(t, progress, 3)
	assert.InDelta(t, 100, progress[2].Percent, 1e-9)
	assert.Equal(t, downloader.OutcomeCompleted, report.Outcome)
	assert.Same(t, report, job.Wait())
	assert.Equal(t, downloader.StateCompleted, job.State())
	assert.Same(t, job, runner.Current())
	assert.FileExists(t, filepath.Join(dest, "logs", "2024", "c.log"))

	snap := job.Snapshot()
	assert.Equal(t, job.ID(), snap.ID)
	assert.Equal(t, 3, snap.Progress.Processed)
	require.NotNil(t, snap.FinishedAt)

	b, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"state":"completed"`)
	assert.Contains(t, string(b), `"outcome":"completed"`)
}

func TestRunner_SingleFlight(t *testing.T) {
	store := newFakeStore("a.txt", "b.txt")
	store.gate = make(chan struct{})
	store.started = make(chan string, 2)
	runner := downloader.NewRunner(downloader.NewEngine(store))
	dest := t.TempDir()

	job, err := runner.Start(context.Background(), "b", downloader.ParseItems([]string{"a.txt"}), dest)
	require.NoError(t, err)
	<-store.started
	assert.Equal(t, downloader.StateRunning, job.State())

	_, err = runner.Start(context.Background(), "b", downloader.ParseItems([]string{"b.txt"}), dest)
	assert.ErrorIs(t, err, downloader.ErrJobInFlight)

	store.gate <- struct{}{}
	job.Wait()

	next, err := runner.Start(context.Background(), "b", downloader.ParseItems([]string{"b.txt"}), dest)
	require.NoError(t, err)
	<-store.started
	store.gate <- struct{}{}
	assert.Equal(t, downloader.OutcomeCompleted, next.Wait().Outcome)
	assert.NotEqual(t, job.ID(), next.ID())
}

func TestRunner_CancelStopsAtNextFile(t *testing.T) {
	store := newFakeStore("1", "2", "3")
	store.gate = make(chan struct{})
	store.started = make(chan string, 3)
	runner := downloader.NewRunner(downloader.NewEngine(store))
	dest := t.TempDir()

	job, err := runner.Start(context.Background(), "b", downloader.ParseItems([]string{"1", "2", "3"}), dest)
	require.NoError(t, err)

	assert.Equal(t, "1", <-store.started)
	job.Cancel()
	store.gate <- struct{}{}

	report := job.Wait()
	assert.Equal(t, downloader.OutcomeCanceled, report.Outcome)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, downloader.StateCanceled, job.State())
	assert.FileExists(t, filepath.Join(dest, "1"))
	assert.NoFileExists(t, filepath.Join(dest, "2"))

	progress, _ := drain(t, job)
	require.Len(t, progress, 1)
	assert.InDelta(t, 100.0/3, progress[0].Percent, 1e-9)
}

func TestRunner_ExpansionErrorIsReturned(t *testing.T) {
	store := newFakeStore("a/x")
	store.listErr = errBoom
	runner := downloader.NewRunner(downloader.NewEngine(store))
	dest := t.TempDir()

	job, err := runner.Start(context.Background(), "b", downloader.ParseItems([]string{"a/"}), dest)
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, job)
	assert.Nil(t, runner.Current())

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// a failed expansion does not block the next job
	store.listErr = nil
	job, err = runner.Start(context.Background(), "b", downloader.ParseItems([]string{"a/"}), dest)
	require.NoError(t, err)
	assert.Equal(t, downloader.OutcomeCompleted, job.Wait().Outcome)
}

func TestRunner_NoDestination(t *testing.T) {
	runner := downloader.NewRunner(downloader.NewEngine(newFakeStore()))
	_, err := runner.Start(context.Background(), "b", downloader.ParseItems([]string{"x"}), "")
	assert.ErrorIs(t, err, downloader.ErrNoDestination)
}

func TestRunner_EmptySelection(t *testing.T) {
	runner := downloader.NewRunner(downloader.NewEngine(newFakeStore("other/x")))

	job, err := runner.Start(context.Background(), "b", downloader.ParseItems([]string{"empty/"}), t.TempDir())
	require.NoError(t, err)

	progress, report := drain(t, job)
	assert.Empty(t, progress)
	assert.Equal(t, downloader.OutcomeCompleted, report.Outcome)
	assert.Zero(t, report.Total)
}
