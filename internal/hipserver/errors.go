package hipserver

import "errors"

// Sentinel errors for server lifecycle operations.
var (
	ErrMissingGateway    = errors.New("hipserver: gateway is required")
	ErrMissingBuilder    = errors.New("hipserver: catalog builder is required")
	ErrMissingTranslator = errors.New("hipserver: translator is required")
	ErrAlreadyStarted    = errors.New("hipserver: server already started")
)
