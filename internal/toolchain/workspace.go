package toolchain

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is a scoped temp directory for one action's staged output, per
// spec §4.4. Every exit path (normal, error, cancellation) removes the
// directory via Close; that is the only cleanup guarantee actions need.
type Workspace struct {
	input   string
	dir     string
	output  string
}

// New creates a scoped temp directory for input (the source file an action
// will transform).
func New(input string) (*Workspace, error) {
	dir, err := os.MkdirTemp("", "sceneforged-ws-"+uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &Workspace{
		input:  input,
		dir:    dir,
		output: filepath.Join(dir, "output"+filepath.Ext(input)),
	}, nil
}

func (w *Workspace) InputPath() string { return w.input }
func (w *Workspace) OutputPath() string { return w.output }
func (w *Workspace) TempDir() string   { return w.dir }

// Finalize performs, in order: fsync output, rename input→input.{backupExt}
// if backupExt is non-empty, rename output→input, fsync the parent
// directory. If input and output are on different filesystems the renames
// fall back to copy+fsync+unlink (spec §6).
func (w *Workspace) Finalize(backupExt string) error {
	if err := fsyncPath(w.output); err != nil {
		return err
	}

	if backupExt != "" {
		backupPath := w.input + "." + backupExt
		if err := renameOrCopy(w.input, backupPath); err != nil {
			return err
		}
	}

	if err := renameOrCopy(w.output, w.input); err != nil {
		return err
	}

	return fsyncPath(filepath.Dir(w.input))
}

// Close removes the workspace's temp directory unconditionally. Callers
// invoke it via defer immediately after New succeeds.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.dir)
}

func fsyncPath(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// renameOrCopy renames src to dst, falling back to copy+fsync+unlink when
// the rename fails across filesystem boundaries (EXDEV).
func renameOrCopy(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := copyAndSync(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// RestoreBackup renames inputPath.{backupExt} back over inputPath,
// reversing the backup step of Finalize. Used by actions whose rollback
// restores the pre-action original (spec §4.5: ConvertDvProfile).
func RestoreBackup(inputPath, backupExt string) error {
	return renameOrCopy(inputPath+"."+backupExt, inputPath)
}

func copyAndSync(dst *os.File, src *os.File) (int64, error) {
	n, err := dst.ReadFrom(src)
	if err != nil {
		return n, err
	}
	return n, dst.Sync()
}
