package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccms/internal/domain"
)

func TestValidatorReady(t *testing.T) {
	v := NewValidator(NewResolver(newConfigStore(), nil), NewResearcher(ResearchDeps{Store: storeWithFacts(completeFacts())}))

	report, err := v.Check(context.Background(), "crashcasino", "viage", "")
	require.NoError(t, err)

	assert.Equal(t, "en-GB", report.Locale)
	assert.True(t, report.ResearchPresent)
	assert.True(t, report.LicensePresent)
	assert.True(t, report.WageringPresent)
	assert.Equal(t, 9, report.TotalFields)
	assert.Equal(t, 5, report.MinFields)
	assert.False(t, report.Blocked())
	assert.Equal(t, 1.0, report.Compliance.Score)
}

func TestValidatorBlocked(t *testing.T) {
	facts := completeFacts()
	delete(facts, "welcome_bonus")
	v := NewValidator(NewResolver(newConfigStore(), nil), NewResearcher(ResearchDeps{Store: storeWithFacts(facts)}))

	report, err := v.Check(context.Background(), "crashcasino", "viage", "en-GB")
	require.NoError(t, err)

	assert.True(t, report.Blocked())
	assert.False(t, report.WageringPresent)
	require.Len(t, report.Compliance.Blocking, 1)
	assert.Contains(t, report.Compliance.Blocking[0], "WAGERING_MISSING")
}

func TestValidatorUnknownTenant(t *testing.T) {
	v := NewValidator(NewResolver(newConfigStore(), nil), NewResearcher(ResearchDeps{Store: &fakeResearchStore{}}))

	_, err := v.Check(context.Background(), "ghost", "viage", "")
	require.ErrorIs(t, err, domain.ErrTenantNotFound)
}
