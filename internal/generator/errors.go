package generator

import (
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a Request fails validation, before any I/O happens
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	// ErrNilCallback is returned by CreateAsync when no completion callback is supplied
	ErrNilCallback = fmt.Errorf("completion callback is required")
	// ErrToolNotFound is returned when the thumbnailing executable is not on the search path
	ErrToolNotFound = fmt.Errorf("thumbnail tool not found")
	// ErrSourceNotFound is returned when the source file cannot be stat'ed
	ErrSourceNotFound = fmt.Errorf("source file not found")
	// ErrFolderCreate is returned when the destination folder cannot be created
	ErrFolderCreate = fmt.Errorf("unable to create destination folder")
	// ErrGenerate is returned when the tool output lacks the success marker
	ErrGenerate = fmt.Errorf("thumbnail generation failed")
	// ErrRename is returned when the generated file cannot be moved to its final name
	ErrRename = fmt.Errorf("unable to rename generated thumbnail")
	// ErrVerify is returned when the renamed thumbnail cannot be stat'ed
	ErrVerify = fmt.Errorf("unable to verify generated thumbnail")
)

// stage names used in log fields and metric attributes
const (
	stageTool   = "tool"
	stageStat   = "stat"
	stageMkdir  = "mkdir"
	stageExec   = "exec"
	stageRename = "rename"
	stageVerify = "verify"
)

type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string {
	return e.err.Error()
}

func (e *stageError) Unwrap() error {
	return e.err
}

func failAt(stage string, sentinel, cause error) error {
	return &stageError{
		stage: stage,
		err:   fmt.Errorf("%w: %w", sentinel, cause),
	}
}
