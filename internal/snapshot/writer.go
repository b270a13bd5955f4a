package snapshot

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jrigden/muckamuck/internal/metrics"
	"github.com/jrigden/muckamuck/internal/model"
)

// rename is swapped in tests to simulate a failing filesystem.
var rename = os.Rename

// Result describes a snapshot that was written.
type Result struct {
	Kind model.Kind
	UUID string
	Path string
	Size int
	// Changed is false when the new bytes equal the previous snapshot.
	Changed bool
}

// Writer persists entity snapshots. It never reads or writes the entity store
// and never modifies the entity it is given.
type Writer struct {
	resolver *Resolver
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewWriter creates a Writer rooted at resolver.
func NewWriter(resolver *Resolver, logger *slog.Logger, recorder metrics.Recorder) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Writer{
		resolver: resolver,
		logger:   logger.With("component", "snapshot.writer"),
		metrics:  recorder,
	}
}

// Resolver returns the path resolver used by the writer.
func (w *Writer) Resolver() *Resolver {
	return w.resolver
}

// WriteSnapshot resolves the entity's directory, provisions it, redacts the
// entity and atomically replaces <dir>/about.json. Readers observe either the
// previous snapshot or the new one, never a partial file.
//
// The pipeline stops at the first failing stage and returns an *Error.
func (w *Writer) WriteSnapshot(e model.Entity) (*Result, error) {
	start := time.Now()

	res, err := w.write(e)
	if err != nil {
		var se *Error
		errors.As(err, &se)
		w.metrics.IncSnapshotFailed(string(se.Kind), string(se.Stage))
		w.logger.Warn("snapshot failed",
			slog.String("kind", string(se.Kind)),
			slog.String("uuid", se.UUID),
			slog.String("stage", string(se.Stage)),
			slog.String("error", se.Err.Error()),
		)
		return nil, err
	}

	w.metrics.IncSnapshotWritten(string(res.Kind))
	w.metrics.ObserveSnapshotDuration(string(res.Kind), time.Since(start))
	w.logger.Debug("snapshot written",
		slog.String("kind", string(res.Kind)),
		slog.String("uuid", res.UUID),
		slog.String("path", res.Path),
		slog.Bool("changed", res.Changed),
	)

	return res, nil
}

func (w *Writer) write(e model.Entity) (*Result, error) {
	entity, err := valueCopy(e)
	if err != nil {
		return nil, NewError(StageResolve, "", "", err)
	}
	kind, uuid := entity.Kind(), entity.ID()

	dir, err := w.resolver.Dir(kind, uuid)
	if err != nil {
		return nil, NewError(StageResolve, kind, uuid, err)
	}

	if err := EnsureTree(dir, Subdirs(kind)); err != nil {
		return nil, NewError(StageProvision, kind, uuid, err)
	}

	doc, err := Redact(entity)
	if err != nil {
		return nil, NewError(StageSerialize, kind, uuid, err)
	}
	data, err := Encode(doc)
	if err != nil {
		return nil, NewError(StageSerialize, kind, uuid, err)
	}

	path := filepath.Join(dir, snapshotFile)
	changed, err := replaceFile(path, data)
	if err != nil {
		return nil, NewError(StageWrite, kind, uuid, err)
	}

	return &Result{
		Kind:    kind,
		UUID:    uuid,
		Path:    path,
		Size:    len(data),
		Changed: changed,
	}, nil
}

// valueCopy dereferences entity pointers so a caller mutating its record
// while the snapshot is being written cannot affect the output.
func valueCopy(e model.Entity) (model.Entity, error) {
	switch v := e.(type) {
	case nil:
		return nil, encodingErrorf("nil entity")
	case *model.User:
		if v == nil {
			return nil, encodingErrorf("nil user")
		}
		return *v, nil
	case *model.Site:
		if v == nil {
			return nil, encodingErrorf("nil site")
		}
		return *v, nil
	default:
		return e, nil
	}
}

// replaceFile writes data to a temp file in the same directory and renames it
// over path. It reports whether the content differs from what was there.
func replaceFile(path string, data []byte) (bool, error) {
	changed := true
	info, err := os.Lstat(path)
	switch {
	case err == nil && info.IsDir():
		return false, conflictErrorf("%s is a directory", path)
	case err == nil:
		if prev, readErr := os.ReadFile(path); readErr == nil {
			changed = !bytes.Equal(prev, data)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, ioError("stat "+path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return false, ioError("create temp file", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return false, ioError("write temp file", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return false, ioError("chmod temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		return false, ioError("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return false, ioError("close temp file", err)
	}
	if err := rename(tmpName, path); err != nil {
		return false, ioError("rename snapshot", err)
	}
	committed = true

	// Best effort: not every platform can fsync a directory.
	_ = syncDir(dir)
	return changed, nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
