// Package realtime is the live distribution layer: it tracks connected
// websocket clients, runs the per-connection protocol loop, and fans
// corridor, anchor and payment events out to subscribers with per-corridor
// rate limiting. Delivery is best-effort; slow consumers lose messages
// instead of stalling producers.
package realtime
