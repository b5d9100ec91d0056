// Package types defines the configuration, rule and log-record types shared
// by the mirralism toolkit, together with the Store interface and its
// standard errors.
package types
