package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollouts.
// Alerting features roll out per school unit so a misconfigured
// threshold never spams every parent in the country at once.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // profile ID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// School unit targeting. Empty means all units.
	TargetSchoolUnits []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID       string // profile UUID
	SchoolUnitID string
	Role         string
	IsAdmin      bool
}

// Predefined feature flag names.
const (
	// === Alerting Features ===
	FeatureNotifyRiskAlerts    = "notify.risk_alerts"     // risk level transitions
	FeatureNotifyRiskCleared   = "notify.risk_cleared"    // student left the risk registry
	FeatureNotifyAbsences      = "notify.absences"        // monthly absence threshold
	FeatureNotifyLowAverages   = "notify.low_averages"    // averages below the passing limit
	FeatureNotifyMonthlyReport = "notify.monthly_report"  // principal's absence summary
	FeatureNotifySMSChannel    = "notify.sms_channel"     // deliver alerts over SMS too

	// === Placement Features ===
	FeatureClassPlacements  = "placements.class_boards"  // per-class placement boards
	FeatureSchoolPlacements = "placements.school_boards" // cross-school boards

	// === Risk Features ===
	FeatureRiskBehaviorComponent = "risk.behavior_component" // behavior grade in risk scoring

	// === Experimental Features ===
	FeatureExperimentalRiskForecast = "experimental.risk_forecast" // trend-based risk prediction
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Alerting features. The core ones ship enabled; SMS is opt-in
	// because it costs money per message.
	ff.features[FeatureNotifyRiskAlerts] = &Feature{
		Name:           FeatureNotifyRiskAlerts,
		Description:    "Notify parents and class masters on risk transitions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyRiskCleared] = &Feature{
		Name:           FeatureNotifyRiskCleared,
		Description:    "Notify parents when a student leaves the risk registry",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyAbsences] = &Feature{
		Name:           FeatureNotifyAbsences,
		Description:    "Monthly unfounded-absence threshold alerts",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyLowAverages] = &Feature{
		Name:           FeatureNotifyLowAverages,
		Description:    "Monthly below-passing-limit average alerts",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyMonthlyReport] = &Feature{
		Name:           FeatureNotifyMonthlyReport,
		Description:    "Monthly absence summary for principals",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifySMSChannel] = &Feature{
		Name:           FeatureNotifySMSChannel,
		Description:    "Deliver urgent alerts over SMS",
		Enabled:        false,
		RolloutPercent: 0,
	}

	// Placement features
	ff.features[FeatureClassPlacements] = &Feature{
		Name:           FeatureClassPlacements,
		Description:    "Per-class placement boards",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureSchoolPlacements] = &Feature{
		Name:           FeatureSchoolPlacements,
		Description:    "School-level placement boards",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Risk features
	ff.features[FeatureRiskBehaviorComponent] = &Feature{
		Name:           FeatureRiskBehaviorComponent,
		Description:    "Count the behavior grade toward the risk level",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features, disabled by default
	ff.features[FeatureExperimentalRiskForecast] = &Feature{
		Name:           FeatureExperimentalRiskForecast,
		Description:    "Trend-based risk prediction",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_NOTIFY_SMS_CHANNEL=true
// Example: FEATURE_NOTIFY_LOW_AVERAGES=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "notify.risk_alerts" -> "FEATURE_NOTIFY_RISK_ALERTS"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check school unit targeting
	if len(feature.TargetSchoolUnits) > 0 && ctx != nil && ctx.SchoolUnitID != "" {
		unitMatch := false
		for _, u := range feature.TargetSchoolUnits {
			if u == ctx.SchoolUnitID {
				unitMatch = true
				break
			}
		}
		if !unitMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(userID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	bucket := int(hash % 100)
	return bucket < percent
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// AlertingEnabled checks if any alerting feature is enabled.
func (ff *FeatureFlags) AlertingEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureNotifyRiskAlerts, ctx) ||
		ff.IsEnabled(FeatureNotifyAbsences, ctx) ||
		ff.IsEnabled(FeatureNotifyLowAverages, ctx) ||
		ff.IsEnabled(FeatureNotifyMonthlyReport, ctx)
}

// PlacementsEnabled checks if any placement board is enabled.
func (ff *FeatureFlags) PlacementsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureClassPlacements, ctx) ||
		ff.IsEnabled(FeatureSchoolPlacements, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
