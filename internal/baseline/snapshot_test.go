package baseline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/stagehand/internal/clock"
	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/domain"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/testutil"
	"github.com/mrz1836/stagehand/internal/workspace"
)

type fixture struct {
	production string
	store      *workspace.FileStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	production := filepath.Join(dir, "production")
	for _, c := range constants.DefaultCategories() {
		require.NoError(t, os.MkdirAll(filepath.Join(production, c.String()), 0o750))
	}
	store, err := workspace.NewFileStore(filepath.Join(dir, "staging"))
	require.NoError(t, err)
	return &fixture{production: production, store: store}
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(f.production, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func (f *fixture) create(t *testing.T, version string, previous *string) *domain.Workspace {
	t.Helper()
	ws, err := f.store.Create(context.Background(), version, previous)
	require.NoError(t, err)
	return ws
}


func TestFingerprintFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("hello"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("hello"), 0o600))

	fpA, err := FingerprintFile(a)
	require.NoError(t, err)
	fpB, err := FingerprintFile(b)
	require.NoError(t, err)

	assert.True(t, fpA.Exists)
	assert.Equal(t, int64(5), fpA.Size)
	assert.Contains(t, fpA.Hash, hashPrefix)
	assert.True(t, fpA.Equal(fpB))

	require.NoError(t, os.WriteFile(b, []byte("hellO"), 0o600))
	fpB, err = FingerprintFile(b)
	require.NoError(t, err)
	assert.False(t, fpA.Equal(fpB))

	missing, err := FingerprintFile(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Equal(t, domain.AbsentFingerprint(), missing)
	assert.Equal(t, "absent", missing.String())

	d, err := FingerprintFile(dir)
	require.NoError(t, err)
	assert.True(t, d.Exists)
	assert.NotEqual(t, fpA.Hash, d.Hash)
}

func TestCandidatePaths(t *testing.T) {
	f := newFixture(t)
	f.write(t, "scripts/deploy.sh", "echo")
	f.write(t, "agents/nested/reviewer.md", "agent")
	f.write(t, "outside/ignored.txt", "x")

	paths, err := CandidatePaths(f.production, constants.DefaultCategories())
	require.NoError(t, err)
	assert.Equal(t, []string{"agents/nested/reviewer.md", "scripts/deploy.sh"}, paths)
}

func TestCandidatePaths_MissingCategory(t *testing.T) {
	dir := t.TempDir()
	paths, err := CandidatePaths(filepath.Join(dir, "none"), constants.DefaultCategories())
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestSnapshotter_Candidates_NoPreviousVersion(t *testing.T) {
	f := newFixture(t)
	f.write(t, "scripts/deploy.sh", "echo")

	s := NewSnapshotter(f.production)

	ws := f.create(t, "v2.0.0", nil)
	paths, err := s.Candidates(ws)
	require.NoError(t, err)
	assert.Empty(t, paths)

	ws = f.create(t, "v3.0.0", testutil.StrPtr("v2.0.0"))
	paths, err = s.Candidates(ws)
	require.NoError(t, err)
	assert.Equal(t, []string{"scripts/deploy.sh"}, paths)
}

func TestSnapshotter_Capture(t *testing.T) {
	f := newFixture(t)
	f.write(t, "scripts/deploy.sh", "echo deploy")
	f.write(t, "skills/lint.md", "lint")

	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	s := NewSnapshotter(f.production, WithClock(clock.Fixed{At: at}), WithConcurrency(2))
	ws := f.create(t, "v2.0.0", testutil.StrPtr("v1.0.0"))

	candidates := []string{"scripts/deploy.sh", "skills/lint.md", "commands/new.md"}
	snap, err := s.Capture(context.Background(), ws, candidates)
	require.NoError(t, err)

	assert.Equal(t, "v2.0.0", snap.Version)
	assert.Equal(t, at, snap.CapturedAt)
	assert.Equal(t, 3, snap.Len())
	assert.True(t, snap.Entries["scripts/deploy.sh"].Exists)
	assert.False(t, snap.Entries["commands/new.md"].Exists)

	loaded, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, snap.Entries, loaded.Entries)
	assert.Equal(t, constants.BaselineSchemaVersion, loaded.SchemaVersion)
}

func TestSnapshotter_Capture_Once(t *testing.T) {
	f := newFixture(t)
	s := NewSnapshotter(f.production)
	ws := f.create(t, "v2.0.0", nil)

	_, err := s.Capture(context.Background(), ws, nil)
	require.NoError(t, err)

	_, err = s.Capture(context.Background(), ws, nil)
	require.ErrorIs(t, err, sherrors.ErrBaselineExists)
}

func TestSnapshotter_Capture_RejectsTraversal(t *testing.T) {
	f := newFixture(t)
	s := NewSnapshotter(f.production)
	ws := f.create(t, "v2.0.0", nil)

	_, err := s.Capture(context.Background(), ws, []string{"../secrets"})
	require.ErrorIs(t, err, sherrors.ErrPathTraversal)
	assert.NoFileExists(t, ws.BaselinePath())
}

func TestSnapshotter_Capture_Canceled(t *testing.T) {
	f := newFixture(t)
	s := NewSnapshotter(f.production)
	ws := f.create(t, "v2.0.0", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Capture(ctx, ws, []string{"scripts/a.sh"})
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, ws.BaselinePath())
}

func TestLoad_Errors(t *testing.T) {
	f := newFixture(t)
	ws := f.create(t, "v2.0.0", nil)

	_, err := Load(ws)
	require.ErrorIs(t, err, sherrors.ErrBaselineMissing)

	require.NoError(t, os.WriteFile(ws.BaselinePath(), []byte("nope"), 0o600))
	_, err = Load(ws)
	require.ErrorIs(t, err, sherrors.ErrWorkspaceCorrupted)
}
