// Package state keeps ephemeral per-user conversation sessions.
// Sessions live only in process memory and are lost on restart.
package state
