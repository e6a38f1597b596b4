package hip

// ResourceType is the protocol-visible type of a resource. The string
// values appear verbatim in paths and JSON documents, including the
// space in "AV renderer".
type ResourceType string

// Resource types understood by B&O devices.
const (
	TypeShade      ResourceType = "SHADE"
	TypeDimmer     ResourceType = "DIMMER"
	TypeCamera     ResourceType = "CAMERA"
	TypeThermostat ResourceType = "THERMOSTAT_1SP"
	TypeAlarm      ResourceType = "ALARM"
	TypeAVRenderer ResourceType = "AV renderer"
	TypeMacro      ResourceType = "MACRO"
)

// Fixed protocol identity strings.
const (
	// SystemHandler is the synthetic system resource path reported in
	// the services document and used for firmware queries.
	SystemHandler = "Main/global/SYSTEM/BLGW"

	// FirmwareVersion is the gateway firmware version the bridge
	// impersonates.
	FirmwareVersion = "1.5.4.557"

	// FirmwareStatusLine is the canned reply to firmware/system status
	// queries. Sent unencoded; the framing layer encodes it.
	FirmwareStatusLine = SystemHandler + "/STATE_UPDATE?" +
		"CURRENT FIRMWARE=" + FirmwareVersion +
		"&LATEST FIRMWARE=" +
		"&ROLLBACK AVAILABLE=1.5.4.533_2023.01.31-22.01.55" +
		"&SYSTEM INFO=READY&revision=39"
)
