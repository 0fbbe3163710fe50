package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID prefixes of the stored entity kinds.
const (
	PrefixUser        = "user"
	PrefixSession     = "session"
	PrefixParticipant = "sp"
	PrefixPatient     = "pat"
	PrefixTask        = "task"
)

// NewID returns an opaque identifier of the form <prefix>_<unix millis>_<suffix>,
// where suffix is nine random lowercase hex characters.
func NewID(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), suffix)
}
