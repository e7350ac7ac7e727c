package validator

import (
	"errors"
	"fmt"
	"net/url"
)

var ErrInvalidPingURL = errors.New("invalid ping url")

// ParsePingURL turns raw into a URL using only the standard URI parsing
// rules. An empty string means the ping URL is unset and yields nil.
func ParsePingURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPingURL, err)
	}

	return u, nil
}
