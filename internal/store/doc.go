// Package store defines the key-value store capability the admission
// controller and response cache are built on, together with the
// health-checked wrapper that fails over from the shared store to an
// in-process one when the shared store is unreachable. Fallback is an
// explicit, observable degradation: cross-process coordination is traded
// for availability, never silently.
package store
