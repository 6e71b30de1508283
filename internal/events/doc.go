// Package events defines ByteHot's closed set of DomainEvent variants and
// the envelope fields common to all of them (event id, correlation id,
// causal preceding-event id, aggregate reference, monotonic timestamp).
//
// Variants are plain structs implementing the Event interface rather than
// an open class hierarchy, so a type switch over Kind() gets exhaustiveness
// checking at review time: adding a new variant means adding a new case
// everywhere the switch matters, not subclassing something.
package events
