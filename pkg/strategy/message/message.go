package message

import "github.com/m-mizutani/herald/pkg/domain/interfaces"

// New selects the builder for the publisher configuration
func New(includeDetails bool) interfaces.MessageBuilder {
	if includeDetails {
		return NewDetails()
	}
	return NewLink(true)
}
