// Package rest layers typed, generic JSON helpers over a fetch.Client:
// requests carry JSON bodies and responses decode straight into the
// caller's type.
package rest
