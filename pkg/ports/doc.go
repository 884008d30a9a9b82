// Package ports defines the interfaces between the canopy core and its
// hosts: trajectory persistence and likelihood evaluation. Adapters under
// pkg/adapters implement the driven side; HTTP/MCP hosts consume the
// driving side.
package ports
