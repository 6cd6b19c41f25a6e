package domain

import (
	"net/url"

	"github.com/pkg/errors"
)

// Endpoint is a Loki push API endpoint advertised over the logging relation.
type Endpoint struct {
	URL string `json:"url"`
}

func (self Endpoint) Validate() error {
	u, err := url.Parse(self.URL)
	if err != nil {
		return errors.WithMessagef(err, "Invalid endpoint URL %q", self.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("Invalid endpoint URL %q: scheme must be http or https", self.URL)
	}
	if u.Host == "" {
		return errors.Errorf("Invalid endpoint URL %q: missing host", self.URL)
	}
	return nil
}
