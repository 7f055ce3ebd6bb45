// Package domain contains the core types shared across the realtime
// distribution layer: wire message envelopes, metric and payment records,
// channel naming, and the collaborator interfaces the realtime components
// depend on.
package domain
