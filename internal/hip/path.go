package hip

// ResourcePath builds the canonical unencoded path of a resource:
// House/<zone>/<type>/<name>/. Callers encode on send; keeping paths
// unencoded until framing avoids double-escaping the '%' byte.
func ResourcePath(zone string, typ ResourceType, name string) string {
	return "House/" + zone + "/" + string(typ) + "/" + name + "/"
}

// StatePath is the resource path with the state-update marker
// appended. State fragments are concatenated directly after it.
func StatePath(zone string, typ ResourceType, name string) string {
	return ResourcePath(zone, typ, name) + "STATE_UPDATE?"
}

// EncodedStatePath is StatePath with the path portion already
// encoded, ready for an `s` line where the fragment is appended
// pre-encoded rather than the whole line being escaped.
func EncodedStatePath(zone string, typ ResourceType, name string) string {
	return "House/" + Encode(zone) + "/" + Encode(string(typ)) + "/" + Encode(name) + "/STATE_UPDATE?"
}
