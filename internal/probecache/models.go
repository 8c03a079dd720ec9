package probecache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"keyflow/internal/keysystem"
)

// Outcome is one recorded capability-probe result.
type Outcome struct {
	KeySystem    string    `json:"key_system"`
	ConfigDigest string    `json:"config_digest"`
	Granted      bool      `json:"granted"`
	Detail       string    `json:"detail,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ConfigDigest produces a stable hex digest identifying an ordered candidate
// configuration list. Candidate order is part of the identity: the host
// evaluates candidates in order, so reordering is a different probe.
func ConfigDigest(configs []keysystem.Configuration) (string, error) {
	encoded, err := json.Marshal(configs)
	if err != nil {
		return "", fmt.Errorf("encode configurations: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:8]), nil
}
