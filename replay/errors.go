package replay

import "fmt"

type ReplayError struct {
	StepIndex int32  `json:"step_index"`
	Line      int    `json:"line,omitempty"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
}

func (e *ReplayError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("replay error(step=%d line=%d reason=%s): %s", e.StepIndex, e.Line, e.Reason, e.Message)
	}
	return fmt.Sprintf("replay error(step=%d reason=%s): %s", e.StepIndex, e.Reason, e.Message)
}
