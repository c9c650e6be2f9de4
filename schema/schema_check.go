package schema

import "time"

// CheckLevel grades one step of the store check.
type CheckLevel string

// All check levels. Only CheckFail fails the check.
const (
	CheckPass CheckLevel = "pass"
	CheckInfo CheckLevel = "info" // Worked, but found nothing to read
	CheckWarn CheckLevel = "warn"
	CheckFail CheckLevel = "fail"
)

// CheckStep is one step run by the store check.
type CheckStep struct {
	Name   string     `json:"name"`
	Level  CheckLevel `json:"level"`
	Detail string     `json:"detail"`
}

// CheckResult holds the results of the store connectivity and data check.
type CheckResult struct {
	Passed   bool          `json:"passed"`
	Backend  string        `json:"backend"`
	Target   string        `json:"target"` // Connection target with the password masked
	Schema   string        `json:"schema,omitempty"`
	Steps    []CheckStep   `json:"steps"`
	Duration time.Duration `json:"duration"`
}

// Failed returns the steps that failed.
func (r CheckResult) Failed() []CheckStep {
	var failed []CheckStep
	for _, s := range r.Steps {
		if s.Level == CheckFail {
			failed = append(failed, s)
		}
	}
	return failed
}
