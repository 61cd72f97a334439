package core

// State is the lifecycle state of a device session.
type State int

const (
	StateUninitialized State = iota // No configuration loaded
	StateConfigured                 // Configuration accepted, not connected
	StateConnected                  // Remote session open
	StateClosed                     // Finalized, terminal
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if no further transitions are possible
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// ErrorKind classifies the type of error for better debugging and reporting
type ErrorKind int

const (
	KindNone          ErrorKind = iota // No error
	KindConfiguration                  // Malformed or missing configuration
	KindConnection                     // Remote session could not be established
	KindInteraction                    // Element action or gesture submission failed
	KindTimeout                        // Locator not resolved within the wait bound
	KindValue                          // Invalid argument, rejected before any remote call
	KindState                          // Operation invoked in the wrong session state
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfiguration:
		return "configuration"
	case KindConnection:
		return "connection"
	case KindInteraction:
		return "interaction"
	case KindTimeout:
		return "timeout"
	case KindValue:
		return "value"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}
