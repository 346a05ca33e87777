package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s3grab/pkg/app"
	"github.com/sgaunet/s3grab/pkg/dto"
	"github.com/sgaunet/s3grab/pkg/progress"
	"github.com/sgaunet/s3grab/pkg/settings"
)

var errDenied = errors.New("access denied")

type fakeStore struct {
	objects []dto.S3Object
	listErr error
	failing map[string]error
}

func (f *fakeStore) ListBuckets(context.Context) ([]dto.Bucket, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []dto.Bucket{
		{Name: "alpha", CreationDate: time.Date(2023, 4, 5, 6, 7, 0, 0, time.UTC)},
		{Name: "beta"},
	}, nil
}

func (f *fakeStore) ListPrefix(_ context.Context, _, prefix string) ([]string, []dto.S3Object, error) {
	if f.listErr != nil {
		return nil, nil, f.listErr
	}
	seen := map[string]bool{}
	var prefixes []string
	var objects []dto.S3Object
	for _, o := range f.objects {
		rel, ok := strings.CutPrefix(o.Key, prefix)
		if !ok {
			continue
		}
		if i := strings.Index(rel, "/"); i >= 0 {
			if p := prefix + rel[:i+1]; !seen[p] {
				seen[p] = true
				prefixes = append(prefixes, p)
			}
			continue
		}
		objects = append(objects, o)
	}
	return prefixes, objects, nil
}

func (f *fakeStore) ListAllUnderPrefix(_ context.Context, _, prefix string, fn func(dto.S3Object) error) error {
	if f.listErr != nil {
		return f.listErr
	}
	for _, o := range f.objects {
		if strings.HasPrefix(o.Key, prefix) {
			if err := fn(o); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *fakeStore) DownloadObject(_ context.Context, _, key, localPath string) error {
	if err := f.failing[key]; err != nil {
		return err
	}
	return os.WriteFile(localPath, []byte(key), 0o600)
}

type memSettings struct {
	st settings.Settings
}

func (m *memSettings) Load() (settings.Settings, error) { return m.st, nil }

func (m *memSettings) Save(st settings.Settings) error {
	m.st = st
	return nil
}

func scenarioStore() *fakeStore {
	return &fakeStore{
		failing: map[string]error{},
		objects: []dto.S3Object{
			{Key: "a/"},
			{Key: "a/x.txt", Size: 10},
			{Key: "a/y.txt", Size: 20},
			{Key: "a/sub/z.txt", Size: 5},
		},
	}
}

func testEnv(store app.Store, st *memSettings) *env {
	e := newEnv()
	e.openStore = func(context.Context) (app.Store, error) { return store, nil }
	e.settingsStore = func() settings.Store { return st }
	e.renderer = func(io.Writer, string) progress.Renderer { return progress.NewLog(e.log) }
	return e
}

func run(t *testing.T, e *env, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(e)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuckets(t *testing.T) {
	out, err := run(t, testEnv(scenarioStore(), &memSettings{}), "", "buckets")
	require.NoError(t, err)
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "2023-04-05 06:07")
	assert.Contains(t, out, "beta")
}

func TestLs(t *testing.T) {
	e := testEnv(scenarioStore(), &memSettings{})

	out, err := run(t, e, "", "ls", "b", "a")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "sub/"))
	assert.True(t, strings.HasPrefix(lines[1], "x.txt"))
	assert.Contains(t, lines[1], "10 B")
	assert.True(t, strings.HasPrefix(lines[2], "y.txt"))

	out, err = run(t, e, "", "ls", "b", "a/", "--search", "Y")
	require.NoError(t, err)
	assert.Equal(t, "y.txt", strings.Fields(out)[0])
}

func TestLs_Failure(t *testing.T) {
	_, err := run(t, testEnv(&fakeStore{listErr: errDenied}, &memSettings{}), "", "ls", "b")
	assert.ErrorIs(t, err, errDenied)
}

func TestDownload(t *testing.T) {
	dest := t.TempDir()
	out, err := run(t, testEnv(scenarioStore(), &memSettings{}), "", "download", "b", "a/sub/", "--dest", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Done: 1 of 1 files downloaded")
	assert.FileExists(t, filepath.Join(dest, "a", "sub", "z.txt"))
}

func TestDownload_ReportsFailures(t *testing.T) {
	store := scenarioStore()
	store.failing["a/x.txt"] = errDenied
	dest := t.TempDir()

	out, err := run(t, testEnv(store, &memSettings{}), "", "download", "b", "a/", "--dest", dest, "--concurrency", "2")
	assert.ErrorIs(t, err, ErrDownloadFailures)
	assert.Contains(t, out, "Done: 2 of 3 files downloaded")
	assert.Contains(t, out, "a/x.txt: access denied")
	assert.NoFileExists(t, filepath.Join(dest, "a", "x.txt"))
	assert.FileExists(t, filepath.Join(dest, "a", "y.txt"))
}

func TestBrowse(t *testing.T) {
	dest := t.TempDir()
	script := strings.Join([]string{
		"ls",
		"bucket b",
		"ls",
		"cd a",
		"pwd",
		"cd x.txt",
		"cd nope",
		"get sub y.txt " + dest,
		"up",
		"pwd",
		"quit",
		"pwd",
	}, "\n")

	out, err := run(t, testEnv(scenarioStore(), &memSettings{}), script, "browse")
	require.NoError(t, err)

	assert.Contains(t, out, "b:/a\n")
	assert.Contains(t, out, "b:/\n")
	assert.Contains(t, out, "Done: 2 of 2 files downloaded")
	assert.FileExists(t, filepath.Join(dest, "a", "sub", "z.txt"))
	assert.FileExists(t, filepath.Join(dest, "a", "y.txt"))
	assert.NoFileExists(t, filepath.Join(dest, "a", "x.txt"))
	assert.Equal(t, 1, strings.Count(out, "b:/\n"), "nothing runs after quit")
}

func TestShellErrors(t *testing.T) {
	e := testEnv(scenarioStore(), &memSettings{})
	e.log = initTrace(io.Discard, "error")
	var out, errOut bytes.Buffer
	sh := newShell(e, scenarioStore(), &out, &errOut)
	ctx := context.Background()

	assert.ErrorIs(t, sh.exec(ctx, []string{"ls"}), ErrNoBucket)
	assert.ErrorIs(t, sh.exec(ctx, []string{"up"}), ErrNoBucket)
	require.NoError(t, sh.exec(ctx, []string{"bucket", "b"}))
	assert.ErrorIs(t, sh.exec(ctx, []string{"cd", "a/x.txt"}), ErrNoSuchEntry)
	require.NoError(t, sh.exec(ctx, []string{"cd", "a/"}))
	assert.Equal(t, "a/", sh.nav.Prefix())
	require.NoError(t, sh.exec(ctx, []string{"cd", ".."}))
	assert.Equal(t, "", sh.nav.Prefix())
	assert.Error(t, sh.exec(ctx, []string{"frobnicate"}))
	assert.ErrorIs(t, sh.exec(ctx, []string{"exit"}), errQuit)
}

func TestSettingsSetAndShow(t *testing.T) {
	st := &memSettings{st: settings.Settings{AccessKeyID: "AKIA", Region: "eu-west-1"}}
	e := testEnv(scenarioStore(), st)
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("AWS_SESSION_TOKEN", "")
	t.Setenv("AWS_REGION", "")

	out, err := run(t, e, "", "settings", "set", "--secret-access-key", "supersecretvalue", "--session-token", "tok-123456")
	require.NoError(t, err)
	assert.Equal(t, "supersecretvalue", st.st.SecretAccessKey)
	assert.Equal(t, "eu-west-1", st.st.Region)
	assert.NotContains(t, out, "supersecretvalue")

	out, err = run(t, e, "", "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "AKIA")
	assert.NotContains(t, out, "supersecret")
	assert.NotContains(t, out, "warning")
}

func TestNormalizePrefix(t *testing.T) {
	testCases := map[string]string{
		"":      "",
		"/":     "",
		"a":     "a/",
		"a/":    "a/",
		"/a/b":  "a/b/",
		"a/b/c": "a/b/c/",
	}
	for in, want := range testCases {
		assert.Equal(t, want, normalizePrefix(in), in)
	}
}

func TestInitTraceLevels(t *testing.T) {
	var buf bytes.Buffer
	log := initTrace(&buf, "warn")
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
