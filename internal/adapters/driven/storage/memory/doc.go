// Package memory provides in-memory implementations of the driven storage ports.
//
// Nothing here survives a restart. The record store is what the CLI falls
// back to with --ephemeral, and all three stores back the service tests.
package memory
