package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/hip"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Builder turns the backend's entity and area registries into
// protocol snapshots.
//
// Thread Safety: Snapshot may be called concurrently; the only shared
// mutable state is the source cache, which locks internally.
type Builder struct {
	gw      backend.Gateway
	filter  Filter
	sources *SourceCache
	logger  Logger
}

// NewBuilder creates a snapshot builder.
func NewBuilder(gw backend.Gateway, filter Filter, sources *SourceCache) *Builder {
	if sources == nil {
		sources = NewSourceCache()
	}
	return &Builder{
		gw:      gw,
		filter:  filter,
		sources: sources,
		logger:  noopLogger{},
	}
}

// SetLogger sets a logger for classification warnings.
func (b *Builder) SetLogger(logger Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// resourceFactory builds one Resource from an eligible entity.
type resourceFactory func(ctx context.Context, b *Builder, e *backend.Entity) (*Resource, error)

// factories dispatches per backend domain. Scenes are handled
// separately because macros attach to the zone of their area entry.
var factories = map[string]resourceFactory{
	backend.DomainCover:       buildShade,
	backend.DomainLight:       buildDimmer,
	backend.DomainCamera:      buildCamera,
	backend.DomainClimate:     buildThermostat,
	backend.DomainAlarm:       buildAlarm,
	backend.DomainMediaPlayer: buildAVRenderer,
	backend.DomainScene:       buildMacro,
}

// Snapshot enumerates the backend and builds a fresh hierarchy.
func (b *Builder) Snapshot(ctx context.Context) (*Snapshot, error) {
	areas, err := b.gw.Areas(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing areas: %w", err)
	}
	areaNames := make(map[string]string, len(areas))
	for _, a := range areas {
		areaNames[a.ID] = a.Name
	}

	entities, err := b.gw.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}

	zones := make(map[string]*Zone)
	var macros []*Resource

	for i := range entities {
		e := &entities[i]

		factory, ok := factories[e.Domain]
		if !ok {
			continue
		}
		if !b.filter.ShouldInclude(e.ID) {
			continue
		}
		if !validName(e.Name) {
			b.logger.Debug("entity name unusable in protocol paths", "entity_id", e.ID, "name", e.Name)
			continue
		}
		zoneName, ok := areaNames[e.AreaID]
		if !ok || e.AreaID == "" {
			b.logger.Debug("entity has no resolvable area", "entity_id", e.ID)
			continue
		}

		res, err := factory(ctx, b, e)
		if err != nil {
			b.logger.Warn("building resource failed", "entity_id", e.ID, "error", err)
			continue
		}
		if res == nil {
			continue
		}
		res.Zone = zoneName

		zone, ok := zones[e.AreaID]
		if !ok {
			zone = &Zone{Name: zoneName, Icon: "house"}
			zones[e.AreaID] = zone
		}
		zone.Resources = append(zone.Resources, res)
		if res.Type == hip.TypeMacro {
			macros = append(macros, res)
		}
	}

	sortedZones := make([]*Zone, 0, len(zones))
	for _, zone := range zones {
		sort.Slice(zone.Resources, func(i, j int) bool {
			return zone.Resources[i].Name < zone.Resources[j].Name
		})
		sortedZones = append(sortedZones, zone)
	}
	sort.Slice(sortedZones, func(i, j int) bool {
		return sortedZones[i].Name < sortedZones[j].Name
	})

	sort.Slice(macros, func(i, j int) bool {
		if macros[i].Zone != macros[j].Zone {
			return macros[i].Zone < macros[j].Zone
		}
		return macros[i].Name < macros[j].Name
	})

	snap := &Snapshot{
		Areas: []*Area{
			{Name: "House", Zones: sortedZones},
			{Name: "Main", Zones: []*Zone{{Name: "global", Icon: "house", Special: true}}},
		},
		Macros: macros,
	}
	return snap, nil
}

// validName rejects names that would collide with the protocol's path
// and query delimiters.
func validName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsAny(name, "?/")
}

func buildShade(_ context.Context, _ *Builder, e *backend.Entity) (*Resource, error) {
	commands := []string{"LOWER", "RAISE", "STOP"}
	var states []string
	if supportsSetPosition(e) {
		commands = append(commands, "SET")
		states = append(states, "LEVEL")
	}
	return &Resource{
		Type:     hip.TypeShade,
		Name:     e.Name,
		EntityID: e.ID,
		Commands: commands,
		States:   states,
	}, nil
}

// coverFeatureSetPosition is the backend's SET_POSITION capability bit.
const coverFeatureSetPosition = 4

func supportsSetPosition(e *backend.Entity) bool {
	feats, _ := e.Float(backend.AttrSupportedFeats)
	return int(feats)&coverFeatureSetPosition != 0
}

func buildDimmer(_ context.Context, _ *Builder, e *backend.Entity) (*Resource, error) {
	return &Resource{
		Type:     hip.TypeDimmer,
		Name:     e.Name,
		EntityID: e.ID,
		Commands: []string{"SET", "SET COLOR"},
		States:   []string{"COLOR", "LEVEL"},
	}, nil
}

func buildCamera(_ context.Context, _ *Builder, e *backend.Entity) (*Resource, error) {
	return &Resource{
		Type:     hip.TypeCamera,
		Name:     e.Name,
		EntityID: e.ID,
	}, nil
}

func buildThermostat(_ context.Context, _ *Builder, e *backend.Entity) (*Resource, error) {
	return &Resource{
		Type:     hip.TypeThermostat,
		Name:     e.Name,
		EntityID: e.ID,
		Commands: []string{"SET SETPOINT", "SET MODE", "SET FAN AUTO"},
		States:   []string{"TEMPERATURE", "SETPOINT", "MODE", "FAN AUTO", "VALUE"},
		Events:   []string{"STATE_UPDATE"},
	}, nil
}

func buildAlarm(_ context.Context, _ *Builder, e *backend.Entity) (*Resource, error) {
	return &Resource{
		Type:     hip.TypeAlarm,
		Name:     e.Name,
		EntityID: e.ID,
		Commands: []string{"ARM", "DISARM"},
		States:   []string{"ALARM", "MODE", "READY"},
	}, nil
}

// avRendererCommands is the command vocabulary a real renderer
// advertises. Only a subset is translatable; the rest no-op.
var avRendererCommands = []string{
	"All standby",
	"Beo4 advanced command",
	"Beo4 command",
	"BeoRemote One Source Selection",
	"BeoRemote One command",
	"Channel selection",
	"Cinema mode",
	"Master volume adjust",
	"Master volume level",
	"Picture Mute",
	"Picture mode",
	"Playqueue add Deezer playlist",
	"Playqueue add TuneIn station",
	"Playqueue add URL",
	"Playqueue clean",
	"Recall profile",
	"Save profile",
	"Select channel",
	"Select source",
	"Select source by id",
	"Send command",
	"Send digit",
	"Sound mode",
	"Speaker group",
	"Stand position",
	"Standby",
	"Volume adjust",
	"Volume level",
}

func buildAVRenderer(ctx context.Context, b *Builder, e *backend.Entity) (*Resource, error) {
	sources, err := b.sources.Get(ctx, b.gw, e.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching sources: %w", err)
	}
	return &Resource{
		Type:         hip.TypeAVRenderer,
		Name:         e.Name,
		EntityID:     e.ID,
		Commands:     avRendererCommands,
		States:       []string{"nowPlaying", "nowPlayingDetails", "online", "sourceName", "sourceUniqueId", "state", "volume"},
		Events:       []string{"All standby", "Control", "Light"},
		Sources:      sources,
		SerialNumber: e.Str(backend.AttrSerialNumber),
	}, nil
}

func buildMacro(_ context.Context, _ *Builder, e *backend.Entity) (*Resource, error) {
	return &Resource{
		Type:     hip.TypeMacro,
		Name:     e.Name,
		EntityID: e.ID,
		Commands: []string{"FIRE"},
	}, nil
}
