// Package history records finished runs so operators can review past sends.
package history
