// Command keyflow is a diagnostics CLI for the capability-negotiation core.
//
// It builds capability configurations for codec sets, runs dry-run
// negotiations against a scriptable in-memory host, and inspects the
// optional probe-outcome cache. The real negotiation core is driven by a
// playback engine through the internal/drm package; this binary exists so
// negotiation behavior can be reproduced without a player.
package main
