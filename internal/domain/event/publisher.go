package event

import "context"

// Publisher re-emits derived events to the bus. Publishing is best-effort
// from the handlers' point of view; implementations decide durability.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}
