package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestComplianceVerdict(t *testing.T) {
	t.Parallel()

	blocking := ComplianceIssue{Code: "LICENSE_MISSING", Severity: SeverityBlocking}
	warning := ComplianceIssue{Code: "JURISDICTION_GB", Severity: SeverityWarning}

	cases := []struct {
		name   string
		report ComplianceReport
		want   Verdict
	}{
		{"clean", ComplianceReport{FailFast: true}, VerdictPass},
		{"warning only", ComplianceReport{FailFast: true, Issues: []ComplianceIssue{warning}}, VerdictWarning},
		{"blocking with fail fast", ComplianceReport{FailFast: true, Issues: []ComplianceIssue{warning, blocking}}, VerdictBlocking},
		{"blocking without fail fast", ComplianceReport{Issues: []ComplianceIssue{blocking}}, VerdictWarning},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.report.Verdict(); got != tc.want {
				t.Fatalf("verdict = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestComplianceErrorMessage(t *testing.T) {
	t.Parallel()

	var err error = &ComplianceError{Report: ComplianceReport{Issues: []ComplianceIssue{
		{Code: "LICENSE_MISSING", Severity: SeverityBlocking},
		{Code: "AFFILIATE_DISCLOSURE_MISSING", Severity: SeverityWarning},
		{Code: "WAGERING_MISSING", Severity: SeverityBlocking},
	}}}

	msg := err.Error()
	if !strings.Contains(msg, "2 blocking issues") || !strings.Contains(msg, "LICENSE_MISSING, WAGERING_MISSING") {
		t.Fatalf("unexpected message %q", msg)
	}
	var ce *ComplianceError
	if !errors.As(err, &ce) || len(ce.Report.Warnings()) != 1 {
		t.Fatalf("report must be reachable through errors.As")
	}
}

func TestContentSettingsMinWords(t *testing.T) {
	t.Parallel()

	if got := (ContentSettings{TargetWordCount: 2500, MinWordRatio: 0.6}).MinWords(); got != 1500 {
		t.Fatalf("MinWords = %d", got)
	}
}
