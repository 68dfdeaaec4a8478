package validate

import (
	"fmt"
	"regexp"
)

// userIdRx keeps user identifiers to a conservative charset; they are
// used verbatim as store scoping keys.
var userIdRx = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field, v string, limit int) error {
	if len(v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// UserID validates the user identifier carried by every request.
func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required")
	}
	if !userIdRx.MatchString(v) {
		return fmt.Errorf("userId must match %s", userIdRx.String())
	}
	return nil
}

// Prompt validates the raw utterance of a process request.
func Prompt(v string) error {
	if err := NonEmpty("prompt", v); err != nil {
		return err
	}
	return MaxLen("prompt", v, 4000)
}
