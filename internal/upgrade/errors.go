package upgrade

import (
	"fmt"
	"strings"
)

// UnsupportedConfigurationError means the settings point at custom component
// repositories, where published release revisions have no meaning.
type UnsupportedConfigurationError struct {
	Repositories []string
}

func (e *UnsupportedConfigurationError) Error() string {
	return fmt.Sprintf("automatic upgrades are not supported with custom repositories (%s)\n  hint: pass explicit revisions for the components you want to update",
		strings.Join(e.Repositories, ", "))
}

// InvalidInputError means the request itself cannot be acted on.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid upgrade request: " + e.Reason
}
