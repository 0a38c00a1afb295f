// Package gateway is the boundary through which side-effecting nodes reach
// outside systems.
//
// Every call returns a Result envelope instead of an error so node handlers
// can record a failure and move on. Mock serves authoring and tests without
// network access; the Registry holds the live handlers built on resty; Dual
// picks one of the two per call from the run's integration mode.
package gateway
