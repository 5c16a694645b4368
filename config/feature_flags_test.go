package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlagDefaults(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureNotifyRiskAlerts, nil))
	assert.True(t, ff.IsEnabled(FeatureNotifyAbsences, nil))
	assert.True(t, ff.IsEnabled(FeatureClassPlacements, nil))
	assert.True(t, ff.IsEnabled(FeatureRiskBehaviorComponent, nil))

	// Paid and experimental features ship disabled.
	assert.False(t, ff.IsEnabled(FeatureNotifySMSChannel, nil))
	assert.False(t, ff.IsEnabled(FeatureExperimentalRiskForecast, nil))

	// Unknown flags are always off.
	assert.False(t, ff.IsEnabled("notify.carrier_pigeon", nil))
}

func TestFeatureFlagEnvOverride(t *testing.T) {
	t.Setenv("FEATURE_NOTIFY_SMS_CHANNEL", "true")
	t.Setenv("FEATURE_NOTIFY_LOW_AVERAGES", "false")

	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureNotifySMSChannel, nil))
	assert.False(t, ff.IsEnabled(FeatureNotifyLowAverages, nil))
}

func TestFeatureFlagEnvRolloutPercent(t *testing.T) {
	t.Setenv("FEATURE_EXPERIMENTAL_RISK_FORECAST", "50")

	ff := LoadFeatureFlags()
	feature := ff.GetAllFeatures()[FeatureExperimentalRiskForecast]
	require.NotNil(t, feature)
	assert.True(t, feature.Enabled)
	assert.Equal(t, 50, feature.RolloutPercent)
}

func TestFeatureFlagRolloutBucketing(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureNotifyRiskAlerts, 40))

	ctx := &FeatureContext{UserID: "6f1d6d2e-0000-4000-8000-000000000001"}

	// Bucketing is deterministic per user and feature.
	first := ff.IsEnabled(FeatureNotifyRiskAlerts, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureNotifyRiskAlerts, ctx))
	}

	// A 0% rollout excludes everyone, 100% includes everyone.
	require.NoError(t, ff.SetRolloutPercent(FeatureNotifyRiskAlerts, 0))
	assert.False(t, ff.IsEnabled(FeatureNotifyRiskAlerts, ctx))
	require.NoError(t, ff.SetRolloutPercent(FeatureNotifyRiskAlerts, 100))
	assert.True(t, ff.IsEnabled(FeatureNotifyRiskAlerts, ctx))
}

func TestFeatureFlagUserOverrides(t *testing.T) {
	ff := LoadFeatureFlags()
	ctx := &FeatureContext{UserID: "user-1"}

	assert.False(t, ff.IsEnabled(FeatureNotifySMSChannel, ctx))

	ff.SetUserOverride("user-1", FeatureNotifySMSChannel, true)
	assert.True(t, ff.IsEnabled(FeatureNotifySMSChannel, ctx))
	assert.False(t, ff.IsEnabled(FeatureNotifySMSChannel, &FeatureContext{UserID: "user-2"}))

	ff.ClearUserOverrides("user-1")
	assert.False(t, ff.IsEnabled(FeatureNotifySMSChannel, ctx))
}

func TestFeatureFlagAdminBypass(t *testing.T) {
	ff := LoadFeatureFlags()

	admin := &FeatureContext{UserID: "admin-1", IsAdmin: true}
	assert.True(t, ff.IsEnabled(FeatureExperimentalRiskForecast, admin))
}

func TestFeatureFlagValidation(t *testing.T) {
	ff := LoadFeatureFlags()

	err := ff.SetRolloutPercent("no.such.feature", 50)
	assert.ErrorIs(t, err, ErrFeatureNotFound)

	err = ff.SetRolloutPercent(FeatureNotifyRiskAlerts, 150)
	assert.ErrorIs(t, err, ErrInvalidRolloutPercent)

	assert.ErrorIs(t, ff.EnableFeature("no.such.feature"), ErrFeatureNotFound)
}

func TestAlertingAndPlacementsShortcuts(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.AlertingEnabled(nil))
	assert.True(t, ff.PlacementsEnabled(nil))

	require.NoError(t, ff.DisableFeature(FeatureNotifyRiskAlerts))
	require.NoError(t, ff.DisableFeature(FeatureNotifyAbsences))
	require.NoError(t, ff.DisableFeature(FeatureNotifyLowAverages))
	require.NoError(t, ff.DisableFeature(FeatureNotifyMonthlyReport))
	assert.False(t, ff.AlertingEnabled(nil))
}
