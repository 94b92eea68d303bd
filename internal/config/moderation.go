package config

import "time"

const (
	// Tokens
	StartingTokens = 20

	// Suspension
	WeaponDrugSuspension   = 7 * 24 * time.Hour
	DefaultSuspension      = 24 * time.Hour
	SuspensionSweepDefault = 5 * time.Minute

	// Username
	UsernameMinLength = 3
	UsernameMaxLength = 20
)

// PermanentViolationKeywords trigger a permanent suspension when found in a violation reason.
var PermanentViolationKeywords = []string{"minor", "child", "nudity", "sexual"}

// WeekViolationKeywords trigger a WeaponDrugSuspension.
var WeekViolationKeywords = []string{"weapon", "drug"}
