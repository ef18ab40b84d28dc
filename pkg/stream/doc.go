// Package stream is the consumer side of logship: a Supervisor that keeps a
// websocket subscription to the live event stream open.
//
// Unclean disconnects are retried after min(1s*2^n, 30s), where n counts
// consecutive failures and resets on every successful open. A normal
// closure from the server, or Close from the caller, is final.
//
//	sup, err := stream.New(stream.Config{
//	    URL:       "ws://localhost:8080/api/v1/logs/ws",
//	    ProjectID: 42,
//	    Token:     token,
//	}, stream.OnEvent(func(ev stream.Event) {
//	    fmt.Println(ev.Level, ev.Message)
//	}))
//	if err != nil {
//	    return err
//	}
//	defer sup.Close()
//	_ = sup.Connect()
package stream
