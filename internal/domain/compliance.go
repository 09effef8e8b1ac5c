package domain

import (
	"fmt"
	"strings"
)

// Severity splits compliance findings into gating and advisory.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityWarning  Severity = "warning"
)

// ComplianceIssue is one failed check.
type ComplianceIssue struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Verdict is the gate outcome for a report.
type Verdict string

const (
	VerdictPass     Verdict = "pass"
	VerdictWarning  Verdict = "warning"
	VerdictBlocking Verdict = "blocking"
)

// ComplianceReport collects every check performed before publishing.
type ComplianceReport struct {
	Score    float64           `json:"overall_score"`
	Checks   int               `json:"checks_performed"`
	Passed   int               `json:"checks_passed"`
	Issues   []ComplianceIssue `json:"issues"`
	FailFast bool              `json:"fail_fast"`
	Bypassed bool              `json:"bypassed"`
}

// Blocking returns blocking issues only.
func (r ComplianceReport) Blocking() []ComplianceIssue {
	return r.filter(SeverityBlocking)
}

// Warnings returns warning issues only.
func (r ComplianceReport) Warnings() []ComplianceIssue {
	return r.filter(SeverityWarning)
}

// Verdict reports Blocking only when fail-fast is on and a blocking issue exists.
func (r ComplianceReport) Verdict() Verdict {
	switch {
	case len(r.Blocking()) > 0 && r.FailFast:
		return VerdictBlocking
	case len(r.Issues) > 0:
		return VerdictWarning
	default:
		return VerdictPass
	}
}

func (r ComplianceReport) filter(sev Severity) []ComplianceIssue {
	var out []ComplianceIssue
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

// ComplianceError is returned by the pipeline when the gate blocks publication.
type ComplianceError struct {
	Report ComplianceReport
}

func (e *ComplianceError) Error() string {
	blocking := e.Report.Blocking()
	codes := make([]string, 0, len(blocking))
	for _, issue := range blocking {
		codes = append(codes, issue.Code)
	}
	return fmt.Sprintf("compliance gate blocked publication: %d blocking issues (%s)", len(blocking), strings.Join(codes, ", "))
}
