package geofence

import "fmt"

// ConfigurationError means the provider cannot work at all, typically a
// missing credential. Not retryable.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("geofence configuration error: %s", e.Reason)
}

// RequestError is a failed remote call (non-2xx). Retryable, surfaced per
// call; carries the response for diagnosis.
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("geofence request failed with status %d: %s", e.Status, e.Body)
}
