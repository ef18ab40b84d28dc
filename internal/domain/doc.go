// Package domain contains the core domain entities and value objects for logship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (HTTP, websockets, logging) and
// contains only pure business logic.
//
// # Entities
//
//   - [Event]: A single log event as produced by an instrumented application
//   - [StreamEvent]: An event received from the live stream, tagged with its project
//   - [Batch]: A contiguous run of events delivered as one network unit
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
