// Package probecache persists capability-probe outcomes in SQLite for
// diagnostics. Platforms gain and lose DRM support with system updates, so
// the cache records what the host answered and when — it is never consulted
// to skip a live probe.
package probecache
