// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [EventSender]: Sends batches of events to the collector
//   - [StreamDialer] and [StreamConn]: Open and read the live event stream
//   - [TokenSource]: Supplies the bearer token for stream subscriptions
//   - [Notifier]: Surfaces connectivity changes to a human operator
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app, internal/stream) depends only on these
// interfaces. Infrastructure adapters (internal/adapters) implement them with
// concrete implementations (HTTP, gorilla/websocket, zerolog, etc.).
package ports
