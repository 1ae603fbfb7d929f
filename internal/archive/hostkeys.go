package archive

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"snow/internal/logger"
	"snow/internal/snowerr"
)

// HostKeyPattern matches the public host keys snow stores in the flake.
const HostKeyPattern = "ssh_host_*_ed25519_key.pub"

// FindHostKeys scans a directory tree and returns every file matching HostKeyPattern,
// sorted by path.
func FindHostKeys(root string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if ok, _ := filepath.Match(HostKeyPattern, d.Name()); ok {
			logger.Debug("Found host key %s", path)
			keys = append(keys, path)
		}
		return nil
	})
	if err != nil {
		return nil, snowerr.IO(err)
	}
	sort.Strings(keys)
	return keys, nil
}

// ImportHostKeys extracts src into a temporary directory and copies every host key it
// contains into keysDir. It returns the paths written.
func ImportHostKeys(src, keysDir string) ([]string, error) {
	tmp, err := os.MkdirTemp("", "snow-keys-")
	if err != nil {
		return nil, snowerr.IO(err)
	}
	defer os.RemoveAll(tmp)

	if err := Extract(src, tmp); err != nil {
		return nil, err
	}
	keys, err := FindHostKeys(tmp)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, snowerr.Configf("no %s files found in %s", HostKeyPattern, src)
	}

	if err := os.MkdirAll(keysDir, 0o755); err != nil {
		return nil, snowerr.IO(err)
	}
	written := make([]string, 0, len(keys))
	for _, key := range keys {
		content, err := os.ReadFile(key)
		if err != nil {
			return written, snowerr.IO(err)
		}
		dst := filepath.Join(keysDir, filepath.Base(key))
		if err := os.WriteFile(dst, content, 0o644); err != nil {
			return written, snowerr.IO(err)
		}
		written = append(written, dst)
	}
	return written, nil
}
