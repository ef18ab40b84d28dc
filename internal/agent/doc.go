// Package agent tails a log file, parses each line and hands the result to
// the shipping client. A ConfigWatcher reloads the service tag when the
// config file changes.
package agent
