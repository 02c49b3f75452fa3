package manifest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedVersion is returned when a string is not a dotted-integer version.
var ErrMalformedVersion = errors.New("malformed version")

const (
	minVersionComponents = 2
	maxVersionComponents = 4
)

// Version is a dotted-integer version of two to four numeric components
// (major.minor[.build[.revision]]), as understood by the updater client.
// The zero value is the empty version and is never valid on the wire.
type Version struct {
	components [maxVersionComponents]int
	count      int
}

// NewVersion builds a version from its numeric components.
func NewVersion(components ...int) (Version, error) {
	if len(components) < minVersionComponents || len(components) > maxVersionComponents {
		return Version{}, fmt.Errorf("%w: expected %d to %d components, got %d",
			ErrMalformedVersion, minVersionComponents, maxVersionComponents, len(components))
	}
	var v Version
	for i, c := range components {
		if c < 0 {
			return Version{}, fmt.Errorf("%w: component %d is negative", ErrMalformedVersion, i)
		}
		v.components[i] = c
	}
	v.count = len(components)
	return v, nil
}

// MustVersion is like ParseVersion but panics on error. Intended for fixtures.
func MustVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseVersion parses a dotted-integer version string such as "1.4.186".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < minVersionComponents || len(parts) > maxVersionComponents {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
	}

	var v Version
	for i, part := range parts {
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
		}
		n, err := strconv.ParseInt(part, 10, 32)
		if err != nil || n > math.MaxInt32 {
			return Version{}, fmt.Errorf("%w: %q: component out of range", ErrMalformedVersion, s)
		}
		v.components[i] = int(n)
	}
	v.count = len(parts)
	return v, nil
}

// IsZero reports whether v is the empty version.
func (v Version) IsZero() bool {
	return v.count == 0
}

// Components returns the numeric components of v.
func (v Version) Components() []int {
	out := make([]int, v.count)
	copy(out, v.components[:v.count])
	return out
}

func (v Version) String() string {
	if v.count == 0 {
		return ""
	}
	parts := make([]string, v.count)
	for i := 0; i < v.count; i++ {
		parts[i] = strconv.Itoa(v.components[i])
	}
	return strings.Join(parts, ".")
}

// Compare returns -1, 0 or +1 depending on whether v is lower than, equal to
// or higher than other. Missing trailing components compare as zero.
func (v Version) Compare(other Version) int {
	for i := 0; i < maxVersionComponents; i++ {
		switch {
		case v.components[i] < other.components[i]:
			return -1
		case v.components[i] > other.components[i]:
			return 1
		}
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	if v.IsZero() {
		return nil, fmt.Errorf("%w: empty version", ErrMalformedVersion)
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
