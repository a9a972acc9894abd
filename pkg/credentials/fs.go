package credentials

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type fsStore struct {
	root string
}

// NewFileStore creates a filesystem-backed credential store rooted at
// dir. Each scope is a sub-directory the transport library reads and
// writes its session files into.
func NewFileStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to create sessions directory")
	}
	return &fsStore{root: dir}, nil
}

func (s *fsStore) Exists(scope string) (bool, error) {
	entries, err := os.ReadDir(s.path(scope))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to read credential scope")
	}

	// An empty scope directory carries no usable material.
	return len(entries) > 0, nil
}

func (s *fsStore) Copy(fromScope, toScope string) error {
	src := s.path(fromScope)
	dst := s.path(toScope)

	if err := os.MkdirAll(dst, 0o700); err != nil {
		return errors.Wrap(err, "failed to create credential scope")
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return errors.Wrap(err, "failed to read credential scope")
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return errors.Wrapf(err, "failed to copy credential file '%s'", entry.Name())
		}
	}

	return nil
}

func (s *fsStore) Delete(scope string) error {
	if err := os.RemoveAll(s.path(scope)); err != nil {
		return errors.Wrap(err, "failed to delete credential scope")
	}
	return nil
}

func (s *fsStore) path(scope string) string {
	// Base() keeps a malicious scope name inside the root.
	return filepath.Join(s.root, filepath.Base(scope))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
