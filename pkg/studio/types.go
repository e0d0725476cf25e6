package studio

import (
	"github.com/bianoble/studio/internal/doctor"
	"github.com/bianoble/studio/internal/editor"
	"github.com/bianoble/studio/internal/migration"
	"github.com/bianoble/studio/internal/release"
	"github.com/bianoble/studio/internal/repo"
	"github.com/bianoble/studio/internal/state"
	"github.com/bianoble/studio/internal/upgrade"
)

// Type aliases re-export internal result types as the public API.
// Users import "github.com/bianoble/studio/pkg/studio" and use
// studio.Result, studio.UpdateInfo, etc.

type State = state.State
type ComponentState = state.ComponentState
type UpdateInfo = release.UpdateInfo
type Result = upgrade.Result
type ComponentUpdate = upgrade.ComponentUpdate
type CheckResult = doctor.CheckResult
type Editor = editor.Editor
type Component = editor.Component
type Outline = editor.Outline

// Error types, re-exported so callers can match them with errors.As.

type InvalidInputError = upgrade.InvalidInputError
type UnsupportedConfigurationError = upgrade.UnsupportedConfigurationError
type FetchError = release.FetchError
type UpdateError = repo.UpdateError
type ApplyError = migration.ApplyError
type MissingDependencyError = doctor.MissingDependencyError
