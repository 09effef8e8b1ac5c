package usecase

import (
	"context"
	"fmt"
)

// ReadinessReport tells whether a casino has enough research to run the pipeline.
type ReadinessReport struct {
	TenantSlug      string            `json:"tenant"`
	CasinoSlug      string            `json:"casino"`
	Locale          string            `json:"locale"`
	ResearchPresent bool              `json:"research_present"`
	TotalFields     int               `json:"total_fields"`
	MinFields       int               `json:"min_fields"`
	LicensePresent  bool              `json:"license_present"`
	WageringPresent bool              `json:"wagering_present"`
	Compliance      ComplianceSummary `json:"compliance"`
}

// ComplianceSummary lists fact-check findings as "CODE: message" strings.
type ComplianceSummary struct {
	Score    float64  `json:"score"`
	Blocking []string `json:"blocking"`
	Warnings []string `json:"warnings"`
}

// Blocked reports whether a blocking fact is missing.
func (r ReadinessReport) Blocked() bool {
	return len(r.Compliance.Blocking) > 0
}

// Validator checks pipeline readiness without generating anything.
type Validator struct {
	resolver *Resolver
	research *Researcher
}

// NewValidator wires the resolver and research tool.
func NewValidator(resolver *Resolver, research *Researcher) *Validator {
	return &Validator{resolver: resolver, research: research}
}

// Check resolves config, loads stored research and runs the fact-based compliance checks.
func (v *Validator) Check(ctx context.Context, tenantSlug, casinoSlug, locale string) (ReadinessReport, error) {
	res, err := v.resolver.Resolve(ctx, ResolveRequest{TenantSlug: tenantSlug, CasinoSlug: casinoSlug, Locale: locale})
	if err != nil {
		return ReadinessReport{}, fmt.Errorf("resolve config: %w", err)
	}
	fact, err := v.research.Lookup(ctx, ResearchQuery{CasinoSlug: casinoSlug, Locale: res.Tenant.Locale})
	if err != nil {
		return ReadinessReport{}, err
	}

	_, license := fact.Lookup("license.primary")
	_, number := fact.Lookup("license.license_number")
	_, wagering := fact.Lookup("welcome_bonus.wagering_requirement")

	report := CheckFacts(fact, res.Settings.Compliance)
	summary := ComplianceSummary{Score: report.Score}
	for _, issue := range report.Blocking() {
		summary.Blocking = append(summary.Blocking, fmt.Sprintf("%s: %s", issue.Code, issue.Message))
	}
	for _, issue := range report.Warnings() {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s: %s", issue.Code, issue.Message))
	}

	return ReadinessReport{
		TenantSlug:      tenantSlug,
		CasinoSlug:      casinoSlug,
		Locale:          res.Tenant.Locale,
		ResearchPresent: !fact.Empty(),
		TotalFields:     fact.TotalFields,
		MinFields:       res.Settings.Research.MinFields,
		LicensePresent:  license && number,
		WageringPresent: wagering,
		Compliance:      summary,
	}, nil
}
