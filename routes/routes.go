// Package routes mounts the HTTP API on a gin engine.
//
//   - api.go: legacy, /v1, health and metrics routes
//   - web.go: landing and docs pages
package routes
