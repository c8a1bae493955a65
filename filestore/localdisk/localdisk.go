// Package localdisk provides a local filesystem implementation of filestore.Disk.
//
// All objects live under a single root directory. Object paths use forward
// slashes regardless of platform and may contain directory separators.
package localdisk

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/code19m/errx"

	"github.com/meridiancms/mediacore/filestore"
)

// tempPattern is the name pattern for in-flight uploads. Files matching it
// are excluded from listings.
const tempPattern = ".put-*"

// Config defines the configuration options for the local disk.
type Config struct {
	// Root is the directory all objects are stored under.
	// It is created if it does not exist.
	Root string `yaml:"root" validate:"required"`
}

// Disk implements the filestore.Disk interface on the local filesystem.
type Disk struct {
	root string
}

var _ filestore.Disk = (*Disk)(nil)

// New creates a local disk rooted at cfg.Root.
func New(cfg Config) (*Disk, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errx.Wrap(err)
	}

	return &Disk{root: root}, nil
}

// Put writes the object atomically: bytes go to a temp file in the target
// directory first, then the temp file is renamed over the final path.
func (d *Disk) Put(ctx context.Context, path string, reader io.Reader) error {
	if err := ctx.Err(); err != nil {
		return errx.Wrap(err)
	}

	full, err := d.resolve(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errx.Wrap(err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return errx.Wrap(err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after successful rename

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		return errx.Wrap(err)
	}

	if err := tmp.Close(); err != nil {
		return errx.Wrap(err)
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		return errx.Wrap(err)
	}

	return nil
}

func (d *Disk) GetStream(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, errx.Wrap(err)
	}

	full, err := d.resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFoundErr(path)
		}
		return nil, errx.Wrap(err)
	}

	return f, nil
}

func (d *Disk) GetStat(ctx context.Context, path string) (filestore.Stat, error) {
	if err := ctx.Err(); err != nil {
		return filestore.Stat{}, errx.Wrap(err)
	}

	full, err := d.resolve(path)
	if err != nil {
		return filestore.Stat{}, err
	}

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return filestore.Stat{}, notFoundErr(path)
		}
		return filestore.Stat{}, errx.Wrap(err)
	}

	return filestore.Stat{
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}, nil
}

// Delete removes the object at path. Missing objects are ignored.
func (d *Disk) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return errx.Wrap(err)
	}

	full, err := d.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errx.Wrap(err)
	}

	return nil
}

func (d *Disk) FlatList(ctx context.Context, prefix string) ([]filestore.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errx.Wrap(err)
	}

	var entries []filestore.Entry

	walkErr := filepath.WalkDir(d.root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if de.IsDir() {
			return nil
		}
		if matched, _ := filepath.Match(tempPattern, de.Name()); matched {
			return nil
		}

		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			entries = append(entries, filestore.Entry{Path: rel})
		}
		return nil
	})
	if walkErr != nil {
		return nil, errx.Wrap(walkErr)
	}

	return entries, nil
}

// resolve maps an object path to an absolute filesystem path under the root,
// rejecting paths that escape it.
func (d *Disk) resolve(path string) (string, error) {
	if path == "" {
		return "", errx.New("empty object path", errx.WithType(errx.T_Validation))
	}

	full := filepath.Join(d.root, filepath.FromSlash(path))
	if full != d.root && !strings.HasPrefix(full, d.root+string(os.PathSeparator)) {
		return "", errx.New(
			"object path escapes disk root: "+path,
			errx.WithType(errx.T_Validation),
		)
	}

	return full, nil
}

func notFoundErr(path string) error {
	return errx.New(
		"object not found: "+path,
		errx.WithCode(filestore.CodeObjectNotFound),
		errx.WithType(errx.T_NotFound),
	)
}
