package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"ccms/internal/domain"
)

// Check names used in compliance.required_checks.
const (
	CheckLicense       = "license"
	CheckWagering      = "wagering"
	CheckAgeDisclaimer = "age_disclaimer"
	CheckRGLinks       = "rg_links"
)

var (
	agePattern       = regexp.MustCompile(`(?i)18\+|\beighteen\b|\badults?\b|\bage\b`)
	rgPattern        = regexp.MustCompile(`(?i)responsible.{0,20}gambl|gambl.{0,20}responsibl|problem.{0,20}gambl`)
	affiliatePattern = regexp.MustCompile(`(?i)affiliate|partner|commission|\bearn|\bpaid\b`)
)

type prohibitedClaim struct {
	code    string
	message string
	pattern *regexp.Regexp
}

var prohibitedClaims = []prohibitedClaim{
	{
		code:    "PROHIBITED_GUARANTEED_WINS",
		message: "content promises guaranteed or risk-free winnings",
		pattern: regexp.MustCompile(`(?i)guaranteed?\s+(?:wins?|winnings|profits?|payouts?)|sure[- ]fire\s+win|can'?t\s+lose|risk[- ]free\s+(?:bet|gambling|money)`),
	},
	{
		code:    "PROHIBITED_UNDERAGE",
		message: "content targets minors",
		pattern: regexp.MustCompile(`(?i)under\s*-?18s?\s+(?:welcome|can\s+play)|for\s+(?:kids|children|teens|teenagers)\b|no\s+age\s+(?:check|verification)\s+needed`),
	},
	{
		code:    "PROHIBITED_MEDICAL_CLAIM",
		message: "content makes health or medical claims about gambling",
		pattern: regexp.MustCompile(`(?i)(?:cures?|treats?|heals?)\s+(?:depression|anxiety|stress|loneliness)|gambling\s+is\s+(?:therapy|therapeutic|healthy)`),
	},
	{
		code:    "PROHIBITED_INVESTMENT",
		message: "content presents gambling as an investment or income",
		pattern: regexp.MustCompile(`(?i)invest(?:ment)?\s+(?:opportunity|strategy|returns?)|(?:guaranteed|passive|steady)\s+income|financial\s+freedom|get\s+rich`),
	},
}

type jurisdictionRule struct {
	code    string
	needle  string
	message string
}

var jurisdictionRules = map[string]jurisdictionRule{
	"GB": {code: "JURISDICTION_GB", needle: "gambleaware.org", message: "UK content should link to gambleaware.org"},
	"DE": {code: "JURISDICTION_DE", needle: "spielen-mit-verantwortung.de", message: "German content should link to spielen-mit-verantwortung.de"},
	"US": {code: "JURISDICTION_US", needle: "21+", message: "US content should state the 21+ age limit"},
}

// ComplianceInput is what the gate inspects: the facts and the rendered HTML.
type ComplianceInput struct {
	Facts    domain.ResearchFact
	HTML     string
	Article  domain.GeneratedArticle
	Locale   string
	Settings domain.ComplianceSettings
	Sections []string
}

type complianceRun struct {
	report domain.ComplianceReport
}

func (c *complianceRun) check(ok bool, issue domain.ComplianceIssue) {
	c.report.Checks++
	if ok {
		c.report.Passed++
		return
	}
	c.report.Issues = append(c.report.Issues, issue)
}

// CheckCompliance runs every configured and mandatory check.
func CheckCompliance(in ComplianceInput) domain.ComplianceReport {
	run := &complianceRun{report: domain.ComplianceReport{FailFast: in.Settings.FailFast}}
	runFactChecks(run, in.Facts, in.Settings)

	text := in.HTML
	if in.Settings.Requires(CheckAgeDisclaimer) {
		run.check(agePattern.MatchString(text), domain.ComplianceIssue{
			Code: "AGE_DISCLAIMER_MISSING", Message: "no age restriction notice found", Severity: domain.SeverityBlocking,
		})
	}
	if in.Settings.Requires(CheckRGLinks) {
		run.check(rgPattern.MatchString(text), domain.ComplianceIssue{
			Code: "RG_LINKS_MISSING", Message: "no responsible gambling message or links found", Severity: domain.SeverityBlocking,
		})
	}

	for _, claim := range prohibitedClaims {
		run.check(!claim.pattern.MatchString(text), domain.ComplianceIssue{
			Code: claim.code, Message: claim.message, Severity: domain.SeverityBlocking,
		})
	}

	run.check(affiliatePattern.MatchString(text), domain.ComplianceIssue{
		Code: "AFFILIATE_DISCLOSURE_MISSING", Message: "no affiliate disclosure found", Severity: domain.SeverityWarning,
	})

	if missing := missingSections(in.Article, in.Sections); len(in.Sections) > 0 {
		run.check(len(missing) == 0, domain.ComplianceIssue{
			Code:     "CONTENT_INCOMPLETE",
			Message:  "missing sections: " + strings.Join(missing, ", "),
			Severity: domain.SeverityWarning,
		})
	}

	if rule, ok := jurisdictionRules[localeCountry(in.Locale)]; ok {
		run.check(strings.Contains(strings.ToLower(text), rule.needle), domain.ComplianceIssue{
			Code: rule.code, Message: rule.message, Severity: domain.SeverityWarning,
		})
	}

	return finish(run.report)
}

// CheckFacts runs only the fact-based checks; used before any content exists.
func CheckFacts(facts domain.ResearchFact, settings domain.ComplianceSettings) domain.ComplianceReport {
	run := &complianceRun{report: domain.ComplianceReport{FailFast: settings.FailFast}}
	runFactChecks(run, facts, settings)
	return finish(run.report)
}

func runFactChecks(run *complianceRun, facts domain.ResearchFact, settings domain.ComplianceSettings) {
	if settings.Requires(CheckLicense) {
		var missing []string
		for _, path := range []string{"license.primary", "license.license_number"} {
			if _, ok := facts.Lookup(path); !ok {
				missing = append(missing, path)
			}
		}
		run.check(len(missing) == 0, domain.ComplianceIssue{
			Code:     "LICENSE_MISSING",
			Message:  fmt.Sprintf("license facts missing: %s", strings.Join(missing, ", ")),
			Severity: domain.SeverityBlocking,
		})
	}
	if settings.Requires(CheckWagering) {
		_, ok := facts.Lookup("welcome_bonus.wagering_requirement")
		run.check(ok, domain.ComplianceIssue{
			Code:     "WAGERING_MISSING",
			Message:  "welcome bonus wagering requirement missing",
			Severity: domain.SeverityBlocking,
		})
	}
}

func finish(r domain.ComplianceReport) domain.ComplianceReport {
	if r.Checks == 0 {
		r.Score = 1
		return r
	}
	r.Score = float64(r.Passed) / float64(r.Checks)
	return r
}

func missingSections(article domain.GeneratedArticle, required []string) []string {
	have := make(map[string]struct{}, len(article.Sections))
	for _, s := range article.Sections {
		have[normalizeHeading(s.Name)] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := have[normalizeHeading(name)]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func normalizeHeading(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "&", "and")
	return strings.Join(strings.Fields(s), " ")
}

func localeCountry(locale string) string {
	if i := strings.IndexAny(locale, "-_"); i >= 0 {
		return strings.ToUpper(locale[i+1:])
	}
	return strings.ToUpper(locale)
}
