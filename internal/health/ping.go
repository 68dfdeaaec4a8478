package health

import "context"

// HealthPinger is the optional fast probe a dependency can expose.
// Checkers type-assert for it; a nil return means the dependency
// answered inside the probe window.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
