// Package events defines the domain events emitted by task use cases
// and the publisher port used to put them on the event stream. Events
// are immutable, write-once records serialized to a flat wire mapping;
// they exist for notification fan-out, not as a source of truth.
package events
