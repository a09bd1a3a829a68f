// Package types defines the row and condition model, the primitive contract
// a SQL backend must satisfy (Conn and Table), the connection Config, and
// the standard errors shared by collections, backends and the CLI.
package types
