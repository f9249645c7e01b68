package recovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/stagehand/internal/constants"
)

func TestTextDiff(t *testing.T) {
	lines := textDiff("a\nb\nc\n", "a\nB\nc\nd\n")

	var types []string
	for _, l := range lines {
		types = append(types, l.Type+":"+l.Text)
	}
	assert.Equal(t, []string{"context:a", "removed:b", "added:B", "context:c", "added:d"}, types)
}

func TestDiffFile(t *testing.T) {
	dir := t.TempDir()
	staged := filepath.Join(dir, "staged.txt")
	require.NoError(t, os.WriteFile(staged, []byte("hello\n"), 0o600))

	t.Run("new file", func(t *testing.T) {
		fd, err := diffFile(constants.CategorySkills, staged, filepath.Join(dir, "absent.txt"), constants.MaxDiffLines)
		require.NoError(t, err)
		assert.True(t, fd.New)
		require.Len(t, fd.Lines, 1)
		assert.Equal(t, LineAdded, fd.Lines[0].Type)
	})

	t.Run("binary", func(t *testing.T) {
		bin := filepath.Join(dir, "bin")
		require.NoError(t, os.WriteFile(bin, []byte{0xff, 0xfe, 0x00}, 0o600))
		fd, err := diffFile(constants.CategorySkills, staged, bin, constants.MaxDiffLines)
		require.NoError(t, err)
		assert.True(t, fd.Binary)
		assert.Empty(t, fd.Lines)
	})

	t.Run("truncated", func(t *testing.T) {
		fd, err := diffFile(constants.CategorySkills, staged, filepath.Join(dir, "absent.txt"), 0)
		require.NoError(t, err)
		assert.True(t, fd.Truncated)
	})
}
