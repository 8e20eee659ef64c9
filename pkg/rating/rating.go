// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package rating computes the per-participant rating delta for a settled match.
//
// The delta is a base step adjusted by the pre-match rating distance: beating a
// weaker opponent earns less than the base step, beating a stronger one earns
// more, and the loss penalties mirror that. Both participants' deltas are
// computed independently from their own perspective.
package rating

import (
	"github.com/yakioni/SVRatings-sub000/pkg/config"
	"github.com/yakioni/SVRatings-sub000/pkg/mathutil"
)

const (
	DefaultBaseStep      = 20.0
	DefaultDiffFactor    = 0.025
	DefaultMaxRatingDiff = 300.0
	DefaultPenaltyWeight = 1.0
)

// Settings carries the tunable constants of the adjustment function.
// BaseStep must stay above DiffFactor*MaxRatingDiff so a win never yields a
// non-positive delta.
type Settings struct {
	BaseStep      float64  // K1
	DiffFactor    float64  // K2
	MaxRatingDiff float64  // matcher pairing window, bounds |ratingSelf - ratingOpponent|
	PenaltyWeight *float64 // optional multiplier for walkover penalty points, nil means 1.0
}

// DefaultSettings returns the ladder's stock constants.
func DefaultSettings() Settings {
	return Settings{
		BaseStep:      DefaultBaseStep,
		DiffFactor:    DefaultDiffFactor,
		MaxRatingDiff: DefaultMaxRatingDiff,
	}
}

// SettingsFromConfig maps the service configuration onto adjustment settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	if cfg.RatingBaseStep > 0 {
		s.BaseStep = cfg.RatingBaseStep
	}
	if cfg.RatingDiffFactor > 0 {
		s.DiffFactor = cfg.RatingDiffFactor
	}
	if cfg.MaxRatingDiff > 0 {
		s.MaxRatingDiff = cfg.MaxRatingDiff
	}
	return s
}

func (s Settings) GetPenaltyWeight() float64 {
	if s.PenaltyWeight == nil {
		return DefaultPenaltyWeight
	}
	return *s.PenaltyWeight
}

// Delta returns the signed rating change for the participant rated ratingSelf
// against an opponent rated ratingOpponent.
//
// With diff = ratingSelf - ratingOpponent and increment = K2*|diff|:
//
//	stronger self, win:  +(K1 - increment)
//	stronger self, loss: -(K1 + increment)
//	weaker self, win:    +(K1 + increment)
//	weaker self, loss:   -(K1 - increment)
//
// Equal ratings collapse to ±K1 exactly. The matcher never pairs entries with
// |diff| > MaxRatingDiff, which keeps increment < K1 and 0 < |Delta| < 2*K1.
func Delta(ratingSelf, ratingOpponent float64, won bool, s Settings) float64 {
	diff := ratingSelf - ratingOpponent
	increment := s.DiffFactor * mathutil.Abs(diff)

	if won {
		if diff > 0 {
			return s.BaseStep - increment
		}
		return s.BaseStep + increment
	}

	if diff > 0 {
		return -(s.BaseStep + increment)
	}
	return -(s.BaseStep - increment)
}

// PenaltyPoints scales the configured walkover penalty by the optional weight.
// The result never drops below zero.
func PenaltyPoints(basePoints int, s Settings) int {
	points := int(float64(basePoints) * s.GetPenaltyWeight())
	return mathutil.Max(points, 0)
}
