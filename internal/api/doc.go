// Package api exposes the task scheduler over HTTP. Handlers decode and
// validate JSON requests, call the task and profile services with the
// authenticated owner, and map service errors to status codes and safe
// messages. Routing and middleware wiring live in cmd/tempo.
package api
