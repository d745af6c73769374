// Package state keeps per-user conversation state: the current step of a
// multi-step flow plus string scratch values collected along the way.
// Handlers depend on the Store interface only; memory, redis and postgres
// implementations are interchangeable.
package state
