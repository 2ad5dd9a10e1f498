package featureflags

import (
	"os"
	"strings"
)

// Enabled reports whether a named flag is switched on through the
// environment. A flag named reservation_promotion is read from
// FLAG_RESERVATION_PROMOTION; accepted truthy values are 1, true, yes
// and on, case-insensitive. Absent flags are off.
func Enabled(name string) bool {
	value := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
