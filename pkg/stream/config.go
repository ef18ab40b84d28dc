package stream

import (
	"fmt"
	"net/url"

	"github.com/sijil-dev/logship/internal/domain"
)

// Config holds the subscription parameters.
type Config struct {
	// URL is the websocket endpoint, e.g. ws://localhost:8080/api/v1/logs/ws.
	URL string

	// ProjectID selects the project whose events are streamed.
	ProjectID int64

	// Token authorizes the subscription. Ignored when a TokenSource option
	// is supplied.
	Token string
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: stream url %q is not an absolute URL", domain.ErrInvalidConfig, c.URL)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: stream url scheme must be ws or wss, got %q", domain.ErrInvalidConfig, u.Scheme)
	}
	if c.ProjectID <= 0 {
		return fmt.Errorf("%w: project id must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// subscriptionURL appends project_id and token to the configured URL.
func subscriptionURL(base string, projectID int64, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("project_id", fmt.Sprint(projectID))
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
