// Package postgres provides the database and Redis connection layer.
//
// The connection manager holds a primary PostgreSQL connection for writes
// and optional round-robin read replicas. Stores in other packages receive
// plain *sql.DB handles from it. The Redis client backs tenant bindings.
package postgres
