package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// FeedWeights defines the term weights for the personalized feed score.
// The graph term is capped by construction (friend > follow, mutually
// exclusive); the engagement and recency terms carry explicit caps.
type FeedWeights struct {
	Friend        float64 `json:"friend"`         // Graph term when the author is a friend (default: 40)
	Follow        float64 `json:"follow"`         // Graph term when the author is followed but not a friend (default: 25)
	EngagementCap float64 `json:"engagement_cap"` // Upper bound of the engagement term (default: 30)
	RecencyCap    float64 `json:"recency_cap"`    // Upper bound of the recency-decay term (default: 20)
	Interaction   float64 `json:"interaction"`    // Flat prior-interaction bonus (default: 10)
}

// Weights holds all ranking weight configurations.
type Weights struct {
	Feed FeedWeights `json:"feed"`
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configurations
}

// DefaultWeights returns the default ranking weight configuration.
//
// Feed formula: score = graph + engagement + recency + interaction, where
// graph is 40 for a friend, 25 for a followed author, 0 otherwise;
// engagement is (likes + comments*2 + shares*3)/10 clamped to 30;
// recency decays linearly from 20 to 0 over 24 hours; and the
// prior-interaction bonus is a flat 10. Maximum composite score: 100.
func DefaultWeights() *Weights {
	return &Weights{
		Feed: FeedWeights{
			Friend:        40,
			Follow:        25,
			EngagementCap: 30,
			RecencyCap:    20,
			Interaction:   10,
		},
	}
}

// LoadCalibration loads ranking weights from a JSON calibration file.
// Weights are fixed for the lifetime of the process: calibration is a
// deploy-time mechanism, never a per-request one.
// If the file doesn't exist or can't be parsed, returns default weights
// with an error so the caller can degrade gracefully.
func LoadCalibration(filePath string) (*Weights, error) {
	// Return defaults if no file path provided
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	// Merge loaded weights with defaults to handle partial configurations
	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with default weights.
// Only non-zero values from the override are applied, allowing partial
// overrides in the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	// Guard against nil base to avoid panics; fall back to defaults.
	if base == nil {
		return DefaultWeights()
	}

	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.Feed.Friend != 0 {
		result.Feed.Friend = override.Feed.Friend
	}
	if override.Feed.Follow != 0 {
		result.Feed.Follow = override.Feed.Follow
	}
	if override.Feed.EngagementCap != 0 {
		result.Feed.EngagementCap = override.Feed.EngagementCap
	}
	if override.Feed.RecencyCap != 0 {
		result.Feed.RecencyCap = override.Feed.RecencyCap
	}
	if override.Feed.Interaction != 0 {
		result.Feed.Interaction = override.Feed.Interaction
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.Feed.Friend != defaults.Feed.Friend {
		overrides = append(overrides, fmt.Sprintf("feed.friend: %.1f -> %.1f",
			defaults.Feed.Friend, loaded.Feed.Friend))
	}
	if loaded.Feed.Follow != defaults.Feed.Follow {
		overrides = append(overrides, fmt.Sprintf("feed.follow: %.1f -> %.1f",
			defaults.Feed.Follow, loaded.Feed.Follow))
	}
	if loaded.Feed.EngagementCap != defaults.Feed.EngagementCap {
		overrides = append(overrides, fmt.Sprintf("feed.engagement_cap: %.1f -> %.1f",
			defaults.Feed.EngagementCap, loaded.Feed.EngagementCap))
	}
	if loaded.Feed.RecencyCap != defaults.Feed.RecencyCap {
		overrides = append(overrides, fmt.Sprintf("feed.recency_cap: %.1f -> %.1f",
			defaults.Feed.RecencyCap, loaded.Feed.RecencyCap))
	}
	if loaded.Feed.Interaction != defaults.Feed.Interaction {
		overrides = append(overrides, fmt.Sprintf("feed.interaction: %.1f -> %.1f",
			defaults.Feed.Interaction, loaded.Feed.Interaction))
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
