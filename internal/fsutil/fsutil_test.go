package fsutil

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sherrors "github.com/mrz1836/stagehand/internal/errors"
)

func TestAtomicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")

	require.NoError(t, AtomicWrite(path, []byte(`{"a":1}`), FilePerm))
	require.NoError(t, AtomicWrite(path, []byte(`{"a":2}`), FilePerm))

	data, err := os.ReadFile(path) //#nosec G304 -- test file path
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(data))
	assert.NoFileExists(t, path+".tmp")
}

func TestWriteOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")

	require.NoError(t, WriteOnce(path, []byte("first"), FilePerm))
	err := WriteOnce(path, []byte("second"), FilePerm)
	require.ErrorIs(t, err, os.ErrExist)

	data, err := os.ReadFile(path) //#nosec G304 -- test file path
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestMoveFile_SameVolume(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "stage", "a.sh")
	dst := filepath.Join(dir, "prod", "nested", "a.sh")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), DirPerm))
	require.NoError(t, os.WriteFile(src, []byte("echo hi"), FilePerm))

	require.NoError(t, MoveFile(src, dst))

	assert.NoFileExists(t, src)
	data, err := os.ReadFile(dst) //#nosec G304 -- test file path
	require.NoError(t, err)
	assert.Equal(t, "echo hi", string(data))
}

func TestMoveFile_CrossDeviceFallback(t *testing.T) {
	orig := renameFunc
	t.Cleanup(func() { renameFunc = orig })
	renameFunc = func(_, _ string) error {
		return &os.LinkError{Op: "rename", Err: syscall.EXDEV}
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "out", "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o640))

	require.NoError(t, MoveFile(src, dst))

	assert.NoFileExists(t, src)
	data, err := os.ReadFile(dst) //#nosec G304 -- test file path
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	leftovers, err := filepath.Glob(filepath.Join(dir, "out", ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSafeJoin(t *testing.T) {
	root := filepath.FromSlash("/stage/v1/scripts")

	tests := []struct {
		name    string
		rel     string
		want    string
		wantErr error
	}{
		{"simple", "a.sh", filepath.Join(root, "a.sh"), nil},
		{"nested", "sub/b.sh", filepath.Join(root, "sub", "b.sh"), nil},
		{"cleaned", "sub/../c.sh", filepath.Join(root, "c.sh"), nil},
		{"empty", "", "", sherrors.ErrEmptyValue},
		{"parent", "../x", "", sherrors.ErrPathTraversal},
		{"deep parent", "a/../../x", "", sherrors.ErrPathTraversal},
		{"absolute", "/etc/passwd", "", sherrors.ErrPathTraversal},
		{"dot", ".", "", sherrors.ErrPathTraversal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SafeJoin(root, tc.rel)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsWithin(t *testing.T) {
	assert.True(t, IsWithin("/a/b", "/a/b"))
	assert.True(t, IsWithin("/a/b", "/a/b/c"))
	assert.False(t, IsWithin("/a/b", "/a/bc"))
	assert.False(t, IsWithin("/a/b", "/a"))
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "x", "y"), DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, FilePerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x", "y", "a.txt"), nil, FilePerm))

	files, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "x/y/a.txt"}, files)

	files, err = ListFiles(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}
