package objstorage

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/canonica-labs/dagplan/internal/planir"
)

// LocalBackend lists files on the local filesystem, rooted at Root. It
// exists for single-node runs and tests where pulling in a real object
// store client would add a dependency with no behavioral benefit over
// filepath.WalkDir.
type LocalBackend struct {
	Root string
}

// NewLocalBackend constructs a LocalBackend rooted at root.
func NewLocalBackend(root string) *LocalBackend {
	return &LocalBackend{Root: root}
}

// Scheme implements Storage.
func (b *LocalBackend) Scheme() planir.Scheme { return planir.SchemeLocal }

// ListPaths implements Storage by walking the filesystem under prefix.
func (b *LocalBackend) ListPaths(ctx context.Context, pathPrefix string) ([]string, error) {
	root := filepath.Join(b.Root, pathPrefix)
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !d.IsDir() {
			rel, relErr := filepath.Rel(b.Root, path)
			if relErr != nil {
				return relErr
			}
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
