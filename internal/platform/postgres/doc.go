// Package postgres provides PostgreSQL-backed implementations of the
// persistence ports defined in the store package.
package postgres
