package editor

import (
	"fmt"
	"sync"
	"time"
)

// Outline resolves where a component sits in its course so the edit panel
// can offer valid parents.
type Outline interface {
	Ancestors(c *Component) ([]Component, error)
}

// Editor drives one component's edit panel. While active it listens for
// its scope's save requests on the bus and persists the component through
// the store. An Editor is live for the lifetime of the panel that owns it
// and must be closed when the panel goes away.
type Editor struct {
	Bus   *Bus
	Store Store

	// Outline may be nil, in which case no parent chooser is offered.
	Outline Outline

	// OnSaveError, when set, receives errors from save requests, which
	// run off the caller's goroutine and have nowhere else to report.
	OnSaveError func(error)

	mu        sync.Mutex
	scope     string
	component *Component
	ancestors []Component
	unsub     func()
}

// Activate starts editing c. The editor subscribes to the scope's save
// requests and resolves the component's ancestors for the parent chooser.
// Activating again replaces the previous subscription.
func (e *Editor) Activate(scope string, c *Component) error {
	if c == nil {
		return fmt.Errorf("no component to edit")
	}
	var ancestors []Component
	if e.Outline != nil {
		var err error
		ancestors, err = e.Outline.Ancestors(c)
		if err != nil {
			return fmt.Errorf("resolving ancestors of component %s: %w", c.ID.Hex(), err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unsub != nil {
		e.unsub()
	}
	e.scope = scope
	e.component = c
	e.ancestors = ancestors
	e.unsub = e.Bus.SubscribeSave(scope, e.onSave)
	return nil
}

// Component returns the component being edited, nil when inactive.
func (e *Editor) Component() *Component {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.component
}

// Ancestors returns the chooser entries resolved at activation.
func (e *Editor) Ancestors() []Component {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ancestors
}

func (e *Editor) onSave(SaveRequested) {
	e.mu.Lock()
	c := e.component
	e.mu.Unlock()
	if c == nil {
		return
	}
	c.UpdatedAt = time.Now().UTC()
	if err := e.Store.Save(c); err != nil && e.OnSaveError != nil {
		e.OnSaveError(err)
	}
}

// Cancel abandons the edit. The triggering event, when given, is consumed
// so no other handler acts on it, and the sidebar is told to drop the
// panel. The returned channel closes once every listener has seen the
// notice.
func (e *Editor) Cancel(evt *Event) <-chan struct{} {
	if evt != nil {
		evt.Consume()
	}
	e.mu.Lock()
	c := e.component
	e.mu.Unlock()
	return e.Bus.PublishRemoveEditView(c)
}

// Close unsubscribes the editor from the bus. Save requests published
// after Close are not delivered.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unsub != nil {
		e.unsub()
		e.unsub = nil
	}
	e.component = nil
	e.ancestors = nil
}
