// Package database owns the PostgreSQL connection pool, schema migrations
// and the repositories the rest of the service reads corridor data through.
package database
