package convert

import (
	"errors"
	"fmt"
)

// Stage names a pipeline step that can fail.
type Stage string

const (
	StageDecode      Stage = "decode"
	StageRecognition Stage = "recognition"
	StageRender      Stage = "render"
)

// Sentinels matched with errors.Is against an *Error of the same stage.
var (
	ErrDecode      = errors.New("decode failed")
	ErrRecognition = errors.New("recognition failed")
	ErrRender      = errors.New("render failed")
)

// Error reports which stage of a conversion failed.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the stage sentinel.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrDecode:
		return e.Stage == StageDecode
	case ErrRecognition:
		return e.Stage == StageRecognition
	case ErrRender:
		return e.Stage == StageRender
	}
	return false
}

func stageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Stage: stage, Err: err}
}
