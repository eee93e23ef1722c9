package convert

import (
	"errors"
	"fmt"
)

// ErrQuality is returned when the requested quality is outside 1-100.
var ErrQuality = errors.New("quality must be between 1 and 100")

// Stage names the pipeline step that failed.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageDecode    Stage = "decode"
	StageNormalize Stage = "normalize"
	StageEncode    Stage = "encode"
	StageWrite     Stage = "write"
)

// Error reports a failed conversion. Path is the file the stage was working
// on and is empty for validation failures.
type Error struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StageOf returns the stage of a conversion error, or "" when err did not
// come from Run.
func StageOf(err error) Stage {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Stage
	}
	return ""
}
