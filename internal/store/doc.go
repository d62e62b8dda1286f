// Package store defines the persistence ports the application core
// depends on: the task repository contract, the DBTX abstraction over
// connections and transactions, and the unit-of-work helper that gives
// every use case a commit-or-rollback boundary.
package store
