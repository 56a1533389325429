package pipeline

import (
	"errors"
	"fmt"
)

// Stage identifies a pipeline stage for error attribution.
type Stage string

const (
	StageBuild   Stage = "build"
	StagePublish Stage = "publish"
	StageRender  Stage = "render"
	StageSubmit  Stage = "submit"
	StageWait    Stage = "wait"
)

// kindLabels maps a failing stage to the user-facing error kind.
var kindLabels = map[Stage]string{
	StageBuild:   "Build error",
	StagePublish: "Publish error",
	StageRender:  "Template error",
	StageSubmit:  "Submission error",
	StageWait:    "Stability timeout",
}

// StageError attributes a failure to the pipeline stage it happened in.
// The pipeline is fail-fast: the first StageError ends the run and later
// stages never execute.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FormatUserError renders the failure for terminal display. Inner errors
// that carry their own user formatting win; otherwise the stage's error
// kind prefixes the message.
func (e *StageError) FormatUserError() string {
	var formatted interface{ FormatUserError() string }
	if errors.As(e.Err, &formatted) {
		return formatted.FormatUserError()
	}
	return fmt.Sprintf("%s: %v", kindLabels[e.Stage], e.Err)
}

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
