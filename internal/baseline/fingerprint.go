package baseline

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/zeebo/blake3"

	"github.com/mrz1836/stagehand/internal/domain"
)

// hashPrefix tags fingerprint hashes with their algorithm.
const hashPrefix = "blake3:"

// FingerprintFile computes the fingerprint of the file at path. A missing path
// yields the absent fingerprint and no error. Directories and other
// non-regular entries are fingerprinted by type alone.
func FingerprintFile(path string) (domain.Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.AbsentFingerprint(), nil
		}
		return domain.Fingerprint{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return domain.Fingerprint{Exists: true, Hash: "type:" + info.Mode().Type().String()}, nil
	}

	f, err := os.Open(path) //#nosec G304 -- path is a production candidate under the configured root
	if err != nil {
		return domain.Fingerprint{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := blake3.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return domain.Fingerprint{}, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return domain.Fingerprint{
		Exists: true,
		Size:   n,
		Hash:   hashPrefix + hex.EncodeToString(h.Sum(nil)),
	}, nil
}
