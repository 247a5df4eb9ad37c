// Package record holds the canonical in-process account state.
//
// An Account carries the core economy fields (balance, experience) plus an
// opaque extension map: any JSON key the core does not recognize survives
// load/mutate/save cycles byte-for-byte. The Store owns the identity ->
// Account mapping for the process lifetime; multi-record atomicity is the
// ledger service's responsibility.
package record
