// Package backendtest provides an in-memory backend.Gateway for tests.
package backendtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/beolink-bridge/internal/backend"
)

// Gateway is a fake backend with scriptable entities, areas, sources
// and credentials. All methods are safe for concurrent use.
type Gateway struct {
	mu            sync.Mutex
	entities      map[string]backend.Entity
	order         []string
	areas         []backend.Area
	sources       map[string][]backend.Source
	sourceFetches map[string]int
	users         map[string]string
	calls         []backend.Call
	subs          map[string]map[int]func(backend.Event)
	nextSub       int
	images        map[string][]byte
	imageFetches  int
	imageErr      error
}

// New returns an empty fake gateway.
func New() *Gateway {
	return &Gateway{
		entities:      make(map[string]backend.Entity),
		sources:       make(map[string][]backend.Source),
		sourceFetches: make(map[string]int),
		users:         make(map[string]string),
		subs:          make(map[string]map[int]func(backend.Event)),
		images:        make(map[string][]byte),
	}
}

// AddArea registers an area.
func (g *Gateway) AddArea(id, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.areas = append(g.areas, backend.Area{ID: id, Name: name})
}

// AddEntity registers an entity (insertion order is preserved in Entities).
func (g *Gateway) AddEntity(e backend.Entity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.entities[e.ID]; !exists {
		g.order = append(g.order, e.ID)
	}
	g.entities[e.ID] = e
}

// SetSources scripts the source list of an AV renderer.
func (g *Gateway) SetSources(entityID string, sources []backend.Source) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sources[entityID] = sources
}

// SetUser registers a valid credential pair.
func (g *Gateway) SetUser(username, password string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[username] = password
}

// SetImage scripts the JPEG returned for a camera entity.
func (g *Gateway) SetImage(entityID string, img []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.images[entityID] = img
}

// SetImageError makes CameraImage fail.
func (g *Gateway) SetImageError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.imageErr = err
}

// Calls returns a copy of every recorded service call.
func (g *Gateway) Calls() []backend.Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]backend.Call, len(g.calls))
	copy(out, g.calls)
	return out
}

// SourceFetches returns how often Sources was called for an entity.
func (g *Gateway) SourceFetches(entityID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sourceFetches[entityID]
}

// SubscriberCount returns the number of live subscriptions on an entity.
func (g *Gateway) SubscriberCount(entityID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs[entityID])
}

// Emit updates an entity's state and notifies its subscribers.
func (g *Gateway) Emit(e backend.Entity) {
	g.mu.Lock()
	g.entities[e.ID] = e
	var fns []func(backend.Event)
	for _, fn := range g.subs[e.ID] {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(backend.Event{EntityID: e.ID, Entity: e})
	}
}

// Entities implements backend.Gateway.
func (g *Gateway) Entities(_ context.Context) ([]backend.Entity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]backend.Entity, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.entities[id])
	}
	return out, nil
}

// Entity implements backend.Gateway.
func (g *Gateway) Entity(_ context.Context, id string) (*backend.Entity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", backend.ErrEntityNotFound, id)
	}
	copied := e
	return &copied, nil
}

// Areas implements backend.Gateway.
func (g *Gateway) Areas(_ context.Context) ([]backend.Area, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]backend.Area, len(g.areas))
	copy(out, g.areas)
	return out, nil
}

// Subscribe implements backend.Gateway.
func (g *Gateway) Subscribe(_ context.Context, entityID string, fn func(backend.Event)) (backend.Unsubscribe, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.subs[entityID] == nil {
		g.subs[entityID] = make(map[int]func(backend.Event))
	}
	token := g.nextSub
	g.nextSub++
	g.subs[entityID][token] = fn

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs[entityID], token)
	}, nil
}

// CallService implements backend.Gateway.
func (g *Gateway) CallService(_ context.Context, call backend.Call) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
	return nil
}

// ValidateCredentials implements backend.Gateway.
func (g *Gateway) ValidateCredentials(_ context.Context, username, password string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	stored, ok := g.users[username]
	return ok && stored == password, nil
}

// ImageFetches returns how often CameraImage was called.
func (g *Gateway) ImageFetches() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.imageFetches
}

// CameraImage implements backend.Gateway.
func (g *Gateway) CameraImage(_ context.Context, entityID string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.imageFetches++
	if g.imageErr != nil {
		return nil, g.imageErr
	}
	img, ok := g.images[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", backend.ErrEntityNotFound, entityID)
	}
	return img, nil
}

// Sources implements backend.Gateway.
func (g *Gateway) Sources(_ context.Context, entityID string) ([]backend.Source, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sourceFetches[entityID]++
	return g.sources[entityID], nil
}
