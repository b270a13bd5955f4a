package snapshot

import (
	"errors"
	"fmt"

	"github.com/jrigden/muckamuck/internal/model"
)

// Error classes. Every failure returned by this package matches exactly one
// of them with errors.Is.
var (
	// ErrEncoding means the entity is missing a field required for export.
	ErrEncoding = errors.New("encoding error")
	// ErrPathConflict means a path that must be a directory is occupied by
	// something else.
	ErrPathConflict = errors.New("path conflict")
	// ErrIO is a transient filesystem failure. Every operation is
	// idempotent, so retrying is safe.
	ErrIO = errors.New("io error")
	// ErrReference means a Site points at an owner the store cannot resolve.
	ErrReference = errors.New("reference error")
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageLookup    Stage = "lookup"
	StageResolve   Stage = "resolve"
	StageProvision Stage = "provision"
	StageSerialize Stage = "serialize"
	StageWrite     Stage = "write"
)

// Error reports which stage failed for which entity.
type Error struct {
	Stage Stage
	Kind  model.Kind
	UUID  string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("snapshot %s %s: %s: %v", e.Kind, e.UUID, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError tags err with the stage and entity it belongs to.
func NewError(stage Stage, kind model.Kind, uuid string, err error) *Error {
	return &Error{Stage: stage, Kind: kind, UUID: uuid, Err: err}
}

// IsRetryable reports whether err is a transient failure worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrIO)
}

// StageOf returns the failed stage, or "" if err did not come from a pipeline.
func StageOf(err error) Stage {
	var se *Error
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

func encodingErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEncoding, fmt.Sprintf(format, args...))
}

func conflictErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPathConflict, fmt.Sprintf(format, args...))
}

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
