// Package logger provides structured logging for fetchkit built on zerolog.
//
// Clients obtain a component-scoped logger and attach request-level fields
// (method, url, status, duration) through the Field* constants so log
// output stays uniform across the kit.
package logger
