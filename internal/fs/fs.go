// Package fs provides the small set of filesystem helpers nimph needs for
// materializing and relocating package checkouts.
package fs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// EnsureDir creates the directory if it does not already exist.
func EnsureDir(path string, perm os.FileMode) error {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.Wrapf(os.MkdirAll(path, perm), "unable to create directory %s", path)
	} else if err != nil {
		return err
	}
	if !fi.IsDir() {
		return errors.Errorf("%s is not a directory", path)
	}
	return nil
}

// RenameWithFallback renames src to dst, falling back to a copy-and-delete
// when the rename fails, e.g. across filesystem boundaries.
func RenameWithFallback(src, dst string) error {
	fi, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "cannot stat %s", src)
	}

	if err = os.Rename(src, dst); err == nil {
		return nil
	}

	if fi.IsDir() {
		if err = copyDir(src, dst); err != nil {
			return errors.Wrapf(err, "copying %s to %s", src, dst)
		}
	} else {
		if err = copyFile(src, dst); err != nil {
			return errors.Wrapf(err, "copying %s to %s", src, dst)
		}
	}
	return errors.Wrapf(os.RemoveAll(src), "removing %s after copy", src)
}

func copyDir(src, dst string) error {
	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(dst, fi.Mode()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		s := filepath.Join(src, entry.Name())
		d := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			err = copyDir(s, d)
		} else if entry.Type()&os.ModeSymlink != 0 {
			err = copyLink(s, d)
		} else {
			err = copyFile(s, d)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}

	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, fi.Mode())
}

func copyLink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	return os.Symlink(target, dst)
}
