// Package persist makes the ledger durable across process restarts.
//
// The whole account mapping is one JSON document. It lives in two places: a
// local on-disk snapshot (always) and a single file inside a GitHub gist
// (when credentials are configured). Loads prefer the remote copy and fall
// back down the chain; saves write local first, then push remote wholesale.
// Remote replacement is last-writer-wins; the design assumes a single
// writer process.
package persist
