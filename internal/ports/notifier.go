package ports

// Notifier surfaces connectivity changes to a human operator.
// Notifications are informational and never affect correctness.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}
