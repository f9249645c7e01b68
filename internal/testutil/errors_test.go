package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrMockDiskFull", ErrMockDiskFull, "disk full"},
		{"ErrMockTransient", ErrMockTransient, "transient"},
		{"ErrMockUpstream", ErrMockUpstream, "upstream unavailable"},
		{"ErrMockWriteFailed", ErrMockWriteFailed, "write failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.err)
		})
	}

	assert.NotErrorIs(t, ErrMockDiskFull, ErrMockTransient)
}

func TestTree(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"scripts/deploy.sh":      "echo deploy\n",
		"commands/nested/run.md": "# run\n",
	}

	WriteTree(t, root, files)
	assert.Equal(t, files, ReadTree(t, root))
	assert.Empty(t, ReadTree(t, filepath.Join(root, "missing")))
}

func TestStrPtr(t *testing.T) {
	p := StrPtr("v1.0.0")
	assert.Equal(t, "v1.0.0", *p)
}
