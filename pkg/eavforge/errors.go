// Package eavforge compiles EAV model and component definitions into a
// Prisma schema. It is the public entry point: configure a Generator with
// options, then call Generate or Write.
package eavforge

import (
	"errors"
	"fmt"

	"github.com/hlop3z/eavforge/internal/alerr"
)

// Sentinel errors for common error conditions.
// Use errors.Is() to check for these errors.
var (
	// ErrMissingSource is returned when no definition source is configured.
	ErrMissingSource = errors.New("eavforge: no definition source configured")

	// ErrConflictingSources is returned when more than one definition source is configured.
	ErrConflictingSources = errors.New("eavforge: more than one definition source configured")

	// ErrMapperFailed is returned when a mapper or loader hook fails.
	ErrMapperFailed = errors.New("eavforge: mapper failed")

	// ErrWriteFailed is returned when the schema cannot be written.
	ErrWriteFailed = errors.New("eavforge: write failed")
)

// Stage is a step of one generation run.
type Stage int

const (
	StageIdle Stage = iota
	StageLoadingExternalModels
	StageReadingSource
	StageApplyingMapper
	StageCompilingModels
	StageEmittingDerivedTables
	StageSerializing
	StageDone
	StageWriting
	StageFailed
)

var stageNames = [...]string{
	StageIdle:                  "idle",
	StageLoadingExternalModels: "loading external models",
	StageReadingSource:         "reading source",
	StageApplyingMapper:        "applying mapper",
	StageCompilingModels:       "compiling models",
	StageEmittingDerivedTables: "emitting derived tables",
	StageSerializing:           "serializing",
	StageDone:                  "done",
	StageWriting:               "writing",
	StageFailed:                "failed",
}

// String returns the string representation of a Stage.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// StageError records the stage at which a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

// Error returns a formatted error message.
func (e *StageError) Error() string {
	return fmt.Sprintf("eavforge: %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is maps failures onto the package sentinels.
func (e *StageError) Is(target error) bool {
	switch target {
	case ErrMapperFailed:
		return e.Stage == StageApplyingMapper || alerr.Is(e.Err, alerr.ErrMapperFailed)
	case ErrWriteFailed:
		return e.Stage == StageWriting
	case ErrMissingSource:
		return alerr.Is(e.Err, alerr.ErrMissingSource)
	}
	return false
}

// Code returns the alerr code of the underlying error, if any.
func (e *StageError) Code() alerr.Code {
	return alerr.GetErrorCode(e.Err)
}

// Phase returns the name of the failed stage.
func (e *StageError) Phase() string {
	return e.Stage.String()
}
