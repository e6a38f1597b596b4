package blgw

import (
	"net/http"
	"time"

	"github.com/nerrad567/beolink-bridge/internal/catalog"
	"github.com/nerrad567/beolink-bridge/internal/hip"
)

// servicesDocument is the body of /blgwpservices.json, the document
// B&O apps fetch to discover the installation. Field names and the
// fixed values (version, fwversion, port) match what a real gateway
// reports; apps reject documents that deviate.
type servicesDocument struct {
	Timestamp    int64             `json:"timestamp"`
	Port         int               `json:"port"`
	SN           string            `json:"sn"`
	Project      string            `json:"project"`
	Installer    installerDocument `json:"installer"`
	Version      int               `json:"version"`
	FWVersion    string            `json:"fwversion"`
	Units        map[string]string `json:"units"`
	MacroEdition bool              `json:"macroEdition"`
	Location     locationDocument  `json:"location"`
	Areas        []areaDocument    `json:"areas"`
}

type installerDocument struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type locationDocument struct {
	CenterLat float64 `json:"centerlat"`
	CenterLon float64 `json:"centerlon"`
	Radius    float64 `json:"radius"`
	Handler   string  `json:"handler"`
}

type areaDocument struct {
	Name  string         `json:"name"`
	Zones []zoneDocument `json:"zones"`
}

type zoneDocument struct {
	Name      string             `json:"name"`
	Icon      string             `json:"icon"`
	Special   bool               `json:"special"`
	Forbidden bool               `json:"forbidden"`
	Resources []resourceDocument `json:"resources"`
}

// resourceDocument carries every field any resource type reports.
// Optional fields are omitted for the types that do not use them;
// cameras are the sparse case (no id, no states).
type resourceDocument struct {
	Type          string           `json:"type"`
	Name          string           `json:"name"`
	ID            string           `json:"id,omitempty"`
	SystemAddress string           `json:"systemAddress,omitempty"`
	Hide          *bool            `json:"hide,omitempty"`
	RTSPSupport   *bool            `json:"rtspSupport,omitempty"`
	Commands      []string         `json:"commands"`
	States        []string         `json:"states,omitempty"`
	Events        []string         `json:"events,omitempty"`
	Beo4NavButton *bool            `json:"Beo4NavButton,omitempty"`
	SN            string           `json:"sn,omitempty"`
	Sources       []sourceDocument `json:"sources,omitempty"`

	PlayQueueCapabilities string `json:"playQueueCapabilities,omitempty"`
	IntegratedRole        string `json:"integratedRole,omitempty"`
	IntegratedSN          string `json:"integratedSN,omitempty"`
}

type sourceDocument struct {
	Name       string         `json:"name"`
	UIType     string         `json:"uiType"`
	Code       string         `json:"code"`
	Format     string         `json:"format"`
	NetworkBit bool           `json:"networkBit"`
	Select     selectDocument `json:"select"`
	SourceID   string         `json:"sourceId"`
	SourceType string         `json:"sourceType"`
	Profiles   string         `json:"profiles"`
}

type selectDocument struct {
	Cmds []string `json:"cmds"`
}

// systemAddress is reported for every addressable resource.
const systemAddress = "HomeAssistant"

// handleServices renders the full snapshot document.
func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	snap, err := s.builder.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("snapshot for services document failed", "error", err)
		writeInternalError(w, "backend enumeration failed")
		return
	}

	doc := servicesDocument{
		Timestamp:    time.Now().Unix(),
		Port:         9100,
		SN:           s.site.SerialNumber,
		Project:      s.site.Name,
		Installer:    installerDocument(s.site.Installer),
		Version:      2,
		FWVersion:    hip.FirmwareVersion,
		Units:        map[string]string{"temperature": "C"},
		MacroEdition: true,
		Location: locationDocument{
			CenterLat: s.site.Location.Latitude,
			CenterLon: s.site.Location.Longitude,
			Radius:    s.site.Location.Radius,
			Handler:   hip.SystemHandler,
		},
		Areas: make([]areaDocument, 0, len(snap.Areas)),
	}

	for _, area := range snap.Areas {
		areaDoc := areaDocument{Name: area.Name, Zones: make([]zoneDocument, 0, len(area.Zones))}
		for _, zone := range area.Zones {
			zoneDoc := zoneDocument{
				Name:      zone.Name,
				Icon:      zone.Icon,
				Special:   zone.Special,
				Forbidden: zone.Forbidden,
				Resources: make([]resourceDocument, 0, len(zone.Resources)),
			}
			for _, res := range zone.Resources {
				zoneDoc.Resources = append(zoneDoc.Resources, buildResourceDocument(res))
			}
			areaDoc.Zones = append(areaDoc.Zones, zoneDoc)
		}
		doc.Areas = append(doc.Areas, areaDoc)
	}

	writeJSON(w, http.StatusOK, doc)
}

func buildResourceDocument(res *catalog.Resource) resourceDocument {
	doc := resourceDocument{
		Type:     string(res.Type),
		Name:     res.Name,
		Commands: nonNil(res.Commands),
	}

	if res.Type == hip.TypeCamera {
		doc.RTSPSupport = boolPtr(false)
		return doc
	}

	doc.ID = res.EntityID
	doc.SystemAddress = systemAddress
	doc.Hide = boolPtr(false)
	doc.States = res.States
	doc.Events = res.Events

	if res.Type == hip.TypeAVRenderer {
		doc.Beo4NavButton = boolPtr(true)
		doc.SN = res.SerialNumber
		doc.PlayQueueCapabilities = "deezer,dlna"
		doc.IntegratedRole = "none"
		doc.Sources = make([]sourceDocument, 0, len(res.Sources))
		for _, src := range res.Sources {
			doc.Sources = append(doc.Sources, sourceDocument{
				Name:       src.Name,
				UIType:     "0.2",
				Code:       "HDMI",
				Format:     "F0",
				NetworkBit: false,
				Select:     selectDocument{Cmds: []string{"Select source by id?" + src.ID}},
				SourceID:   src.ID,
				SourceType: "",
				Profiles:   "",
			})
		}
	}

	return doc
}

func boolPtr(v bool) *bool { return &v }

// nonNil guarantees an empty JSON array instead of null.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
