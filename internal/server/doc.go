// Package server wires the HTTP surface: the websocket upgrade endpoint,
// health and metrics endpoints, and the echo middleware stack around them.
package server
