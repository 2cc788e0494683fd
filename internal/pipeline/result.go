package pipeline

import (
	"github.com/oukeidos/novtl/internal/recovery"
	"github.com/oukeidos/novtl/internal/translator"
)

// RunStatus is the terminal state of a novel run.
type RunStatus string

const (
	RunStatusSuccess        RunStatus = "success"
	RunStatusPartialSuccess RunStatus = "partial_success"
	RunStatusFailure        RunStatus = "failure"
)

// RunResult contains structured outputs from RunNovel.
type RunResult struct {
	RunID           string
	Status          RunStatus
	GlossarySize    int
	GlossaryLoaded  bool
	Methods         map[translator.Method]int
	FailedChapters  []int
	SkippedChapters []int
	TotalChapters   int
	StoryID         int64
	ReportPath      string
}

// ChapterProgress is reported after every finished chapter.
type ChapterProgress struct {
	Chapter int
	Method  translator.Method
	Done    int
	Total   int
}

func runStatusFromReport(status string) RunStatus {
	switch status {
	case recovery.StatusSuccess:
		return RunStatusSuccess
	case recovery.StatusPartialSuccess:
		return RunStatusPartialSuccess
	default:
		return RunStatusFailure
	}
}
