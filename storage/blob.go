package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"bulletin-etl/models"
)

// FSBlobStore keeps blobs as files on an afero filesystem. Blob names use
// forward slashes and are relative to the filesystem root.
type FSBlobStore struct {
	fs afero.Fs
}

// NewFSBlobStore wraps an existing filesystem.
func NewFSBlobStore(fs afero.Fs) *FSBlobStore {
	return &FSBlobStore{fs: fs}
}

// NewDirBlobStore stores blobs under dir, creating it if needed.
func NewDirBlobStore(dir string) (*FSBlobStore, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("blob: create %q: %w", dir, err)
	}
	return NewFSBlobStore(afero.NewBasePathFs(osFs, dir)), nil
}

func (s *FSBlobStore) Read(_ context.Context, name string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("blob %q: %w", name, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("blob: read %q: %w: %v", name, models.ErrTransport, err)
	}
	return data, nil
}

// Write replaces the blob atomically by writing a sibling temp file and
// renaming it over the target.
func (s *FSBlobStore) Write(_ context.Context, name string, data []byte) error {
	if dir := path.Dir(name); dir != "." {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("blob: create dir for %q: %w: %v", name, models.ErrTransport, err)
		}
	}
	tmp := name + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("blob: write %q: %w: %v", name, models.ErrTransport, err)
	}
	if err := s.fs.Rename(tmp, name); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("blob: commit %q: %w: %v", name, models.ErrTransport, err)
	}
	return nil
}

// List returns the sorted names of blobs in the directory of prefix that
// start with prefix.
func (s *FSBlobStore) List(_ context.Context, prefix string) ([]string, error) {
	dir := path.Dir(prefix + "_")
	infos, err := afero.ReadDir(s.fs, dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blob: list %q: %w: %v", prefix, models.ErrTransport, err)
	}

	var names []string
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		name := fi.Name()
		if dir != "." {
			name = dir + "/" + name
		}
		if strings.HasPrefix(name, prefix) && !strings.HasSuffix(name, ".tmp") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *FSBlobStore) Delete(_ context.Context, name string) error {
	err := s.fs.Remove(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("blob: delete %q: %w: %v", name, models.ErrTransport, err)
	}
	return nil
}
