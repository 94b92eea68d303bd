// Package observability provides structured logging setup and Prometheus metrics
// for the chat backend.
package observability
