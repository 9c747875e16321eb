package peaceagent

import "github.com/TrevorConnolly/ApologyAgent/internal/eventbus"

// WithEventBus sets the event bus component.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(p *PeaceAgent) {
		p.eventBus = bus
	}
}
