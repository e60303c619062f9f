// Package driving provides interfaces for external actors (primary/inbound
// ports). The CLI, HTTP API, and TUI adapters call the core through these.
package driving
