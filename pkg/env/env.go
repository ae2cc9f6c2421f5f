// Package env holds the few process settings read before config.Load runs.
package env

import (
	"os"
	"strings"
)

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// InstanceID names this process in logs and consumer keys. It prefers
// WHOLESALEHUB_INSTANCE_ID, then the container hostname.
func InstanceID(fallback string) string {
	if id := Get("WHOLESALEHUB_INSTANCE_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallback
}
