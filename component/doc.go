// Package component defines the lifecycle contract implemented by managed
// fetchkit pieces. An embedding application starts, health-checks, and stops
// components without knowing what they wrap.
package component
