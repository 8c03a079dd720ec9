package drm

import (
	"errors"
	"fmt"
	"strings"

	"keyflow/internal/keysystem"
)

// Sentinel errors classifying negotiation-step failures. All are recoverable
// and handled at the step boundary except ErrNoModuleAvailable, which is
// fatal for the current playback attempt and escalates to the caller.
var (
	ErrUnsupportedKeySystem  = errors.New("unsupported key system")
	ErrKeySystemAccessDenied = errors.New("key system access denied")
	ErrModuleCreationFailed  = errors.New("decryption module creation failed")
	ErrSessionCreationFailed = errors.New("key session creation failed")
	ErrNoModuleAvailable     = errors.New("no decryption module available")
)

// Wrap builds an error message carrying the key system and step context while
// tagging it with the provided marker for later classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, id keysystem.ID, step, message string, err error) error {
	detail := buildDetail(string(id), step, message)
	if marker == nil {
		marker = ErrKeySystemAccessDenied
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(id, step, message string) string {
	parts := make([]string, 0, 3)
	if id = strings.TrimSpace(id); id != "" {
		parts = append(parts, id)
	}
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "negotiation failure"
	}
	return strings.Join(parts, ": ")
}
