// Package cli provides the FoodKeeper command-line client.
//
// It wires configuration, the local credential store, the HTTP client, the
// session manager and the access gate, and exposes them two ways: a cobra
// command tree for one-shot use, and an interactive REPL started when no
// subcommand is given.
//
// Public commands: login, register, logout, status.
// Protected commands run through the gate: whoami, items, expiring, barcode,
// analyze, dashboard, watch. Without a session they run the login flow
// instead.
//
// The REPL also starts a background revalidation loop that re-checks the
// session every RevalidateInterval. See App, StartRevalidation and runREPL.
package cli
