package catalog

import (
	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/hip"
)

// systemAddress is reported for every addressable resource.
const systemAddress = "HomeAssistant"

// Resource is one protocol-visible controllable object derived from a
// backend entity or scene.
type Resource struct {
	Type hip.ResourceType
	Name string

	// EntityID is the backing backend entity. For a MACRO it is the
	// scene entity fired by FIRE.
	EntityID string

	// Zone is the owning zone's display name, denormalised here so
	// paths can be built from the resource alone.
	Zone string

	Commands []string
	States   []string
	Events   []string

	// AV renderer extras.
	Sources      []backend.Source
	SerialNumber string
}

// Path returns the resource's canonical unencoded path.
func (r *Resource) Path() string {
	return hip.ResourcePath(r.Zone, r.Type, r.Name)
}

// StatePath returns the resource's unencoded state path.
func (r *Resource) StatePath() string {
	return hip.StatePath(r.Zone, r.Type, r.Name)
}

// Subscribable reports whether the resource pushes state lines.
// Cameras and macros have no state fields.
func (r *Resource) Subscribable() bool {
	return len(r.States) > 0
}

// Zone groups the resources of one backend area.
type Zone struct {
	Name      string
	Icon      string
	Special   bool
	Forbidden bool
	Resources []*Resource
}

// Area groups zones. Only "House" and "Main" exist.
type Area struct {
	Name  string
	Zones []*Zone
}

// Snapshot is one complete enumeration of the backend.
type Snapshot struct {
	Areas []*Area

	// Macros lists the MACRO resources separately for the scene
	// response lines; the same pointers also appear in their zones.
	Macros []*Resource
}

// Resources walks every resource in zone order then name order.
func (s *Snapshot) Resources() []*Resource {
	var out []*Resource
	for _, area := range s.Areas {
		for _, zone := range area.Zones {
			out = append(out, zone.Resources...)
		}
	}
	return out
}

// Find returns the resource with the given type and name, or nil.
func (s *Snapshot) Find(typ hip.ResourceType, name string) *Resource {
	for _, res := range s.Resources() {
		if res.Type == typ && res.Name == name {
			return res
		}
	}
	return nil
}
