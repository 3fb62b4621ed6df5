// Package context holds typed request-scoped values shared by transports, services and logging.
package context

type contextKey string
