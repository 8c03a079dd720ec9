package keysystem

// Capability describes one media capability a configuration requires.
// Robustness is optional; an empty value leaves the choice to the host.
type Capability struct {
	ContentType string `json:"content_type"`
	Robustness  string `json:"robustness,omitempty"`
}

// Configuration is one candidate capability configuration. The host probe
// evaluates candidates in order and grants the first viable one, so slice
// order is significant everywhere configurations travel.
//
// InitDataTypes, DistinctiveIdentifier, PersistentState, and SessionTypes are
// forward-declared for hosts that evaluate them; no built-in builder sets
// them yet.
type Configuration struct {
	InitDataTypes         []string     `json:"init_data_types,omitempty"`
	AudioCapabilities     []Capability `json:"audio_capabilities,omitempty"`
	VideoCapabilities     []Capability `json:"video_capabilities"`
	DistinctiveIdentifier string       `json:"distinctive_identifier,omitempty"`
	PersistentState       string       `json:"persistent_state,omitempty"`
	SessionTypes          []string     `json:"session_types,omitempty"`
}

// Options carries vendor options a builder may fold into its configurations.
type Options struct {
	AudioRobustness string
	VideoRobustness string
}
