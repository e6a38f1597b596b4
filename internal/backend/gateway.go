package backend

import "context"

// Unsubscribe releases a state subscription. Safe to call more than once.
type Unsubscribe func()

// Gateway is the full backend surface the bridge depends on.
//
// Implementations must be safe for concurrent use: the TCP protocol
// server, the HTTP API and the MQTT mirror all share one Gateway.
// Subscription callbacks may be invoked from the implementation's own
// goroutines and must not be assumed to run on any particular one.
type Gateway interface {
	// Entities returns every entity with its current state and
	// resolved area. Entities without an area are still returned;
	// callers decide whether to skip them.
	Entities(ctx context.Context) ([]Entity, error)

	// Entity returns a single entity's current state.
	Entity(ctx context.Context, id string) (*Entity, error)

	// Areas returns all backend areas.
	Areas(ctx context.Context) ([]Area, error)

	// Subscribe registers fn for state changes on one entity. The
	// returned Unsubscribe must be called to release the registration.
	Subscribe(ctx context.Context, entityID string, fn func(Event)) (Unsubscribe, error)

	// CallService invokes a backend service.
	CallService(ctx context.Context, call Call) error

	// ValidateCredentials checks a username/password pair against the
	// bridge's configured accounts.
	ValidateCredentials(ctx context.Context, username, password string) (bool, error)

	// CameraImage fetches one JPEG frame from a camera entity.
	CameraImage(ctx context.Context, entityID string) ([]byte, error)

	// Sources returns the selectable sources of an AV renderer.
	Sources(ctx context.Context, entityID string) ([]Source, error)
}
