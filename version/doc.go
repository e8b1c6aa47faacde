// Package version exposes build version information and derives the
// default user-agent string sent by fetchkit clients.
package version
