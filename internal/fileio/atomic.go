// Package fileio provides the write-temp-then-rename primitive used for
// every mutation of a canonical file. A crash mid-write must never leave
// a half-written file in place of the original.
package fileio

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/civicdata/inspection-cli/internal/model"
)

// WriteAtomic writes to path by streaming into a temp file in the same
// directory and renaming it over the target on success. On any failure
// the temp file is removed and the original file is untouched. All
// failures carry model.KindWrite.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return model.WrapKind(model.KindWrite, eris.Wrapf(err, "create temp in %s", dir))
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err := write(tmp); err != nil {
		cleanup()
		return model.WrapKind(model.KindWrite, eris.Wrapf(err, "write %s", path))
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return model.WrapKind(model.KindWrite, eris.Wrapf(err, "sync %s", tmpPath))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return model.WrapKind(model.KindWrite, eris.Wrapf(err, "close %s", tmpPath))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return model.WrapKind(model.KindWrite, eris.Wrapf(err, "rename %s -> %s", tmpPath, path))
	}
	return nil
}

// WriteFileAtomic writes data to path atomically.
func WriteFileAtomic(path string, data []byte) error {
	return WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
