// Package editor connects component edit panels to the authoring UI's
// event traffic.
package editor

import "sync/atomic"

// RemoveEditViewTopic tells the owning sidebar to drop the edit panel for
// a component.
const RemoveEditViewTopic = "editorSidebarView:removeEditView"

// SaveTopic is the per-scope topic save requests arrive on, so several
// panel types can share one hub without hearing each other's saves.
func SaveTopic(scope string) string {
	return scope + ":views:save"
}

// Event is a consumable notification. Handlers that fully act on an event
// consume it so later handlers leave it alone.
type Event struct {
	consumed atomic.Bool
}

// Consume marks the event as handled.
func (e *Event) Consume() {
	e.consumed.Store(true)
}

// Consumed reports whether a handler already claimed the event.
func (e *Event) Consumed() bool {
	return e.consumed.Load()
}

// SaveRequested asks the active editor for a scope to persist its
// component.
type SaveRequested struct {
	Scope string
}

// RemoveEditView carries the component whose edit panel should go away.
type RemoveEditView struct {
	Component *Component
}
