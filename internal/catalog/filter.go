package catalog

// Filter modes.
const (
	ModeInclude = "include"
	ModeExclude = "exclude"
)

// Filter decides which backend entities are exposed. The zero value
// exposes everything.
type Filter struct {
	Mode     string
	Entities map[string]struct{}
}

// NewFilter builds a Filter from a mode and entity ID list.
func NewFilter(mode string, entities []string) Filter {
	set := make(map[string]struct{}, len(entities))
	for _, id := range entities {
		set[id] = struct{}{}
	}
	return Filter{Mode: mode, Entities: set}
}

// ShouldInclude reports whether the entity passes the filter.
func (f Filter) ShouldInclude(entityID string) bool {
	switch f.Mode {
	case ModeInclude:
		_, ok := f.Entities[entityID]
		return ok
	case ModeExclude:
		_, ok := f.Entities[entityID]
		return !ok
	default:
		return true
	}
}
