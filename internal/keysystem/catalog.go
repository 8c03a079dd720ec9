package keysystem

import (
	"errors"
	"fmt"
)

// ErrUnsupported reports that no builder is registered for a key system.
var ErrUnsupported = errors.New("unsupported key system")

// BuilderFunc produces the ordered candidate configurations for one key
// system. Builders must be pure.
type BuilderFunc func(audioCodecs, videoCodecs []string, opts Options) []Configuration

// Catalog maps key-system identifiers to configuration builders. Adding
// support for another key system means registering another builder; no other
// component changes.
type Catalog struct {
	builders map[ID]BuilderFunc
	order    []ID
}

// NewCatalog returns a catalog with the built-in key systems registered.
func NewCatalog() *Catalog {
	c := &Catalog{builders: make(map[ID]BuilderFunc)}
	c.Register(Widevine, buildWidevine)
	return c
}

// Register adds or replaces the builder for id.
func (c *Catalog) Register(id ID, fn BuilderFunc) {
	if _, seen := c.builders[id]; !seen {
		c.order = append(c.order, id)
	}
	c.builders[id] = fn
}

// Supported lists registered key systems in registration order.
func (c *Catalog) Supported() []ID {
	out := make([]ID, len(c.order))
	copy(out, c.order)
	return out
}

// Build returns the ordered candidate configurations for id, or
// ErrUnsupported when no builder is registered.
func (c *Catalog) Build(id ID, audioCodecs, videoCodecs []string, opts Options) ([]Configuration, error) {
	fn, ok := c.builders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, id)
	}
	return fn(audioCodecs, videoCodecs, opts), nil
}

// buildWidevine emits a single candidate requiring one video capability per
// distinct requested video codec, in request order. Audio capabilities are
// deliberately omitted: declaring only what is strictly required keeps the
// host probe from rejecting an otherwise viable configuration.
func buildWidevine(_ []string, videoCodecs []string, opts Options) []Configuration {
	video := make([]Capability, 0, len(videoCodecs))
	for _, codec := range videoCodecs {
		video = append(video, Capability{
			ContentType: VideoContentType(codec),
			Robustness:  opts.VideoRobustness,
		})
	}
	return []Configuration{{VideoCapabilities: video}}
}
