// Package mirror exports the protocol state stream over MQTT.
//
// Each subscribable resource's state fragment is published retained
// to beobridge/state/<zone>/<type>/<name>, updated on every backend
// state change, so integrations can follow the installation without
// holding a TCP session. Commands published to
// beobridge/command/<zone>/<type>/<name> are translated and executed
// exactly like TCP c lines.
//
// The mirror is optional and only started when MQTT is enabled in
// configuration.
package mirror
