package blgw

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nerrad567/beolink-bridge/internal/catalog"
	"github.com/nerrad567/beolink-bridge/internal/hip"
)

// Synthetic id bases for the secondary schema. B&O clients cross
// reference entries between categories by these numeric ids, so both
// the bases and the assignment order are fixed.
const (
	areaIDBase        = 50
	zoneIDBase        = 100
	addressableIDBase = 1000
	stateIDBase       = 3000
	cameraIDBase      = 5000
)

// domainPriority fixes the order resources receive ids in, ahead of
// the per-type name sort.
var domainPriority = map[hip.ResourceType]int{
	hip.TypeAVRenderer: 0,
	hip.TypeDimmer:     1,
	hip.TypeShade:      2,
	hip.TypeThermostat: 3,
	hip.TypeCamera:     4,
	hip.TypeAlarm:      5,
	hip.TypeMacro:      6,
}

type areaEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type zoneEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Area string `json:"area"`
}

type addressableEntry struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
	Zone string `json:"zone"`
	Path string `json:"path"`
}

type stateEntry struct {
	ID    int    `json:"id"`
	State string `json:"state"`
	Path  string `json:"path"`
}

type cameraEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Zone string `json:"zone"`
}

// modelDocuments is one full id assignment over a snapshot.
type modelDocuments struct {
	areas        []areaEntry
	zones        []zoneEntry
	addressables []addressableEntry
	states       []stateEntry
	cameras      []cameraEntry
}

// handleModel serves the secondary schema documents. PUT requests to
// subscription paths are acknowledged without effect: clients insist
// on registering but the gateway pushes all state over TCP anyway.
func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "*")

	if r.Method == http.MethodPut {
		if strings.Contains(resource, "subscriptions") {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		writeNotFound(w, "unknown model resource")
		return
	}

	snap, err := s.builder.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("snapshot for model document failed", "error", err)
		writeInternalError(w, "backend enumeration failed")
		return
	}
	docs := assignIDs(snap)

	switch lastSegment(resource) {
	case "areas":
		writeJSON(w, http.StatusOK, map[string]any{"areas": docs.areas})
	case "zones":
		writeJSON(w, http.StatusOK, map[string]any{"zones": docs.zones})
	case "addressables":
		writeJSON(w, http.StatusOK, map[string]any{"addressables": docs.addressables})
	case "states":
		writeJSON(w, http.StatusOK, map[string]any{"states": docs.states})
	case "cameras":
		writeJSON(w, http.StatusOK, map[string]any{"cameras": docs.cameras})
	default:
		writeNotFound(w, "unknown model resource")
	}
}

func lastSegment(path string) string {
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// assignIDs walks a snapshot in the fixed order and hands out ids
// per category. Areas: Main before House. Zones: global first, then
// the house zones in catalog order. Resources: domain priority, then
// name.
func assignIDs(snap *catalog.Snapshot) modelDocuments {
	var docs modelDocuments

	docs.areas = []areaEntry{
		{ID: areaIDBase, Name: "Main"},
		{ID: areaIDBase + 1, Name: "House"},
	}

	zoneID := zoneIDBase
	docs.zones = append(docs.zones, zoneEntry{ID: zoneID, Name: "global", Area: "Main"})
	zoneID++

	var resources []*catalog.Resource
	for _, area := range snap.Areas {
		if area.Name != "House" {
			continue
		}
		for _, zone := range area.Zones {
			docs.zones = append(docs.zones, zoneEntry{ID: zoneID, Name: zone.Name, Area: "House"})
			zoneID++
			resources = append(resources, zone.Resources...)
		}
	}

	sort.SliceStable(resources, func(i, j int) bool {
		pi, pj := domainPriority[resources[i].Type], domainPriority[resources[j].Type]
		if pi != pj {
			return pi < pj
		}
		return resources[i].Name < resources[j].Name
	})

	addressableID := addressableIDBase
	stateID := stateIDBase
	cameraID := cameraIDBase
	for _, res := range resources {
		if res.Type == hip.TypeCamera {
			docs.cameras = append(docs.cameras, cameraEntry{
				ID:   cameraID,
				Name: res.Name,
				Zone: res.Zone,
			})
			cameraID++
			continue
		}

		docs.addressables = append(docs.addressables, addressableEntry{
			ID:   addressableID,
			Type: string(res.Type),
			Name: res.Name,
			Zone: res.Zone,
			Path: res.Path(),
		})
		addressableID++

		for _, state := range res.States {
			docs.states = append(docs.states, stateEntry{
				ID:    stateID,
				State: state,
				Path:  res.StatePath(),
			})
			stateID++
		}
	}

	return docs
}
