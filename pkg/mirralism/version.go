// Package mirralism holds project-wide constants for the mirralism toolkit.
package mirralism

// Version is the toolkit release version.
const Version = "0.3.0"
