// Package database provides SQLite persistence for SmartHive Core.
//
// This package manages:
//   - Connection lifecycle with WAL mode and busy timeout
//   - Schema migrations from embedded SQL files
//   - Health checks and connection statistics
//
// # Why SQLite
//
// The core holds only the account/controller/device relations the alert
// pipeline needs to resolve recipients. A single-file embedded database
// keeps the deployment self-contained: no external database server, and
// the entitlement lookup is one local indexed join per alert.
//
// # Migrations
//
// Migration files live in the top-level migrations/ directory and are
// embedded into the binary. Filenames follow:
//
//	YYYYMMDD_HHMMSS_description.up.sql
//	YYYYMMDD_HHMMSS_description.down.sql
//
// Each migration runs in its own transaction; re-running Migrate after a
// failure continues from the failed version.
package database
