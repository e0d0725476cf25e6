package editor

import (
	"github.com/juju/pubsub/v2"
)

// Bus is a typed front for the process-wide event hub. Publish methods
// return the hub's completion channel, closed once every subscriber has
// run, so callers can wait for delivery when they need to.
type Bus struct {
	hub *pubsub.SimpleHub
}

// NewBus returns a Bus backed by a fresh hub.
func NewBus() *Bus {
	return &Bus{hub: pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{})}
}

// SubscribeSave delivers save requests for one scope. The returned
// function unsubscribes.
func (b *Bus) SubscribeSave(scope string, fn func(SaveRequested)) func() {
	return b.hub.Subscribe(SaveTopic(scope), func(_ string, data interface{}) {
		if req, ok := data.(SaveRequested); ok {
			fn(req)
		}
	})
}

// PublishSave asks the editor listening on scope to persist its component.
func (b *Bus) PublishSave(scope string) <-chan struct{} {
	return waitChan(b.hub.Publish(SaveTopic(scope), SaveRequested{Scope: scope}))
}

// waitChan adapts the hub's completion func into a channel closed once
// every subscriber has run.
func waitChan(wait func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	return done
}

// SubscribeRemoveEditView delivers edit panel teardown notices. The
// returned function unsubscribes.
func (b *Bus) SubscribeRemoveEditView(fn func(RemoveEditView)) func() {
	return b.hub.Subscribe(RemoveEditViewTopic, func(_ string, data interface{}) {
		if note, ok := data.(RemoveEditView); ok {
			fn(note)
		}
	})
}

// PublishRemoveEditView announces that c's edit panel should be removed.
func (b *Bus) PublishRemoveEditView(c *Component) <-chan struct{} {
	return waitChan(b.hub.Publish(RemoveEditViewTopic, RemoveEditView{Component: c}))
}
