// Package service implements the application use cases for tasks. Each
// mutating operation runs inside a single database transaction and
// publishes its domain event before committing, so a publish failure
// leaves no partial state behind.
package service
