// Package api contains the HTTP layer: request/response models,
// handlers, and the mapping from domain errors to status codes.
package api
