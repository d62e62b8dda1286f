// Package redisstream implements event publication and consumption on
// Redis Streams. Producers append entries with XADD; consumers read
// through consumer groups with at-least-once delivery, acknowledging an
// entry only after its handler succeeds.
package redisstream
