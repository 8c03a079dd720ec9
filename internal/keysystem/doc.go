// Package keysystem models content-protection key systems and builds the
// candidate capability configurations offered to the host probe.
//
// Everything in this package is pure: builders consult no negotiation state
// and perform no I/O, so the catalog can be exercised (and extended) without
// touching the asynchronous negotiation machinery.
package keysystem
