package websearch

import (
	"errors"
	"fmt"
)

// ErrConfiguration matches every ConfigurationError.
var ErrConfiguration = errors.New("web search not configured")

// ConfigurationError reports a missing credential. It is returned before any
// network call is attempted.
type ConfigurationError struct {
	Capability Kind
	Variable   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s requires %s; set it in .env, the environment or with `docent auth`",
		ErrConfiguration, e.Capability, e.Variable)
}

// Is makes errors.Is(err, ErrConfiguration) hold.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
