// Package server implements the HTTP and WebSocket side of the chat relay.
//
// A single Hub owns the connection registry and the bounded message history.
// Client pumps, HTTP handlers, configuration, and lifecycle helpers live in
// their own files and reach shared state only through the hub.
package server
