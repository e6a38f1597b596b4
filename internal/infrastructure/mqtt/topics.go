package mqtt

import "fmt"

// defaultTopicPrefix is used when the config leaves the prefix empty.
const defaultTopicPrefix = "beobridge"

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
// The mirror publishes resource state under a flat scheme:
//
//	topics := mqtt.Topics{Prefix: cfg.TopicPrefix}
//	stateTopic := topics.ResourceState("Living%20Room", "DIMMER", "Ceiling")
//	// Returns: "beobridge/state/Living%20Room/DIMMER/Ceiling"
//
// Path segments must already be percent-encoded by the caller so the
// segment separator stays unambiguous.
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return defaultTopicPrefix
	}
	return t.Prefix
}

// Status returns the bridge status topic, also used for the LWT.
//
// Example: beobridge/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix())
}

// ResourceState returns the retained state topic for one resource.
//
// Example: beobridge/state/Kitchen/SHADE/Blinds
func (t Topics) ResourceState(zone, typ, name string) string {
	return fmt.Sprintf("%s/state/%s/%s/%s", t.prefix(), zone, typ, name)
}

// Firmware returns the topic carrying the gateway firmware report.
//
// Example: beobridge/system/firmware
func (t Topics) Firmware() string {
	return fmt.Sprintf("%s/system/firmware", t.prefix())
}

// AllResourceStates returns a pattern matching every state topic.
//
// Pattern: beobridge/state/#
func (t Topics) AllResourceStates() string {
	return fmt.Sprintf("%s/state/#", t.prefix())
}

// AllCommands returns a pattern matching every inbound command topic.
// Commands arrive as beobridge/command/{zone}/{type}/{name} with
// percent-encoded segments; the command itself travels in the payload
// ("SET?LEVEL=40" style).
//
// Pattern: beobridge/command/#
func (t Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/#", t.prefix())
}
