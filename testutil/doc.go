// Package testutil provides small HTTP test servers used across fetchkit
// tests: compressed responders, redirect chains, and a request echo.
package testutil
