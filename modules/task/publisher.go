package task

import (
	"github.com/example/task-marketplace/events"
	"github.com/go-monolith/mono"
)

// EventPublisher announces task lifecycle changes to other modules.
type EventPublisher interface {
	TaskCreated(event events.TaskCreatedEvent) error
	TaskUpdated(event events.TaskUpdatedEvent) error
	TaskCancelled(event events.TaskCancelledEvent) error
}

// busPublisher publishes typed events on the mono event bus.
type busPublisher struct {
	bus mono.EventBus
}

func newPublisher(bus mono.EventBus) EventPublisher {
	if bus == nil {
		return noopPublisher{}
	}
	return busPublisher{bus: bus}
}

func (p busPublisher) TaskCreated(event events.TaskCreatedEvent) error {
	return events.TaskCreatedV1.Publish(p.bus, event, nil)
}

func (p busPublisher) TaskUpdated(event events.TaskUpdatedEvent) error {
	return events.TaskUpdatedV1.Publish(p.bus, event, nil)
}

func (p busPublisher) TaskCancelled(event events.TaskCancelledEvent) error {
	return events.TaskCancelledV1.Publish(p.bus, event, nil)
}

type noopPublisher struct{}

func (noopPublisher) TaskCreated(events.TaskCreatedEvent) error     { return nil }
func (noopPublisher) TaskUpdated(events.TaskUpdatedEvent) error     { return nil }
func (noopPublisher) TaskCancelled(events.TaskCancelledEvent) error { return nil }
