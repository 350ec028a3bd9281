package booking

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateID returns a random UUID. If the system random source is unusable
// it falls back to a millisecond timestamp with a pseudo-random suffix.
func GenerateID() string {
	id, err := uuid.NewRandom()

	if err != nil {
		return fallbackID(time.Now())
	}

	return id.String()
}

var derivedNamespace = uuid.MustParse("5f0c1a8e-4b6d-4e2a-9c57-2d8f3b1e7a40")

// DerivedID returns a name-based UUID for records stored without an id. The
// same fields always give the same id, so repeated reads agree.
func DerivedID(fields ...string) string {
	return uuid.NewSHA1(derivedNamespace, []byte(strings.Join(fields, "\x1f"))).String()
}

func fallbackID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + strconv.FormatUint(rand.Uint64(), 36)
}
