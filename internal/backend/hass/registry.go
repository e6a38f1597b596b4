package hass

import (
	"strings"

	"github.com/nerrad567/beolink-bridge/internal/backend"
)

// buildEntity merges one state object with the entity and device
// registries into a backend entity. Area resolution prefers the
// entity's own assignment and falls back to its device's area.
func buildEntity(state stateObject, entities map[string]entityEntry, devices map[string]deviceEntry) backend.Entity {
	e := backend.Entity{
		ID:         state.EntityID,
		Domain:     entityDomain(state.EntityID),
		State:      state.State,
		Attributes: state.Attributes,
	}

	if entry, ok := entities[state.EntityID]; ok {
		e.AreaID = entry.AreaID
		e.DeviceID = entry.DeviceID
		if e.AreaID == "" && entry.DeviceID != "" {
			if dev, ok := devices[entry.DeviceID]; ok {
				e.AreaID = dev.AreaID
			}
		}
		if entry.Name != "" {
			e.Name = entry.Name
		}
	}

	if name, ok := state.Attributes[backend.AttrFriendlyName].(string); ok && name != "" {
		e.Name = name
	}
	if e.Name == "" {
		e.Name = objectID(state.EntityID)
	}

	return e
}

// entityDomain returns the domain part of an entity ID.
func entityDomain(entityID string) string {
	if i := strings.IndexByte(entityID, '.'); i >= 0 {
		return entityID[:i]
	}
	return entityID
}

// objectID returns the object part of an entity ID.
func objectID(entityID string) string {
	if i := strings.IndexByte(entityID, '.'); i >= 0 {
		return entityID[i+1:]
	}
	return entityID
}

// sourcesFromEntity derives the selectable sources of an AV renderer.
// Integrations that expose stable source IDs list them in
// source_id_list, index-aligned with source_list. Without IDs a
// slugged name is used so source selection still round-trips.
func sourcesFromEntity(e *backend.Entity) []backend.Source {
	names := e.Strings(backend.AttrSourceList)
	if len(names) == 0 {
		return nil
	}
	ids := e.Strings(backend.AttrSourceIDList)

	out := make([]backend.Source, 0, len(names))
	for i, name := range names {
		id := ""
		if i < len(ids) {
			id = ids[i]
		}
		if id == "" {
			id = slugify(name)
		}
		out = append(out, backend.Source{ID: id, Name: name})
	}
	return out
}

// slugify lowercases a source name and replaces whitespace so it can
// serve as a stable identifier.
func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(s), "_")
}
