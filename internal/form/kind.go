package form

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind is the closed set of input kinds a Field can have. Each kind carries
// its own built-in rule, applied after the required check.
type Kind int

const (
	Text Kind = iota
	Email
	Password
)

const minPasswordLen = 6

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Email:
		return "email"
	case Password:
		return "password"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return Text, nil
	case "email":
		return Email, nil
	case "password":
		return Password, nil
	default:
		return Text, fmt.Errorf("unknown field kind: %q", s)
	}
}

// check returns the built-in error for an already trimmed, non-empty value.
func (k Kind) check(value string) string {
	switch k {
	case Email:
		if !emailRe.MatchString(value) {
			return "Invalid email"
		}
	case Password:
		if utf8.RuneCountInString(value) < minPasswordLen {
			return fmt.Sprintf("Password must be at least %d characters", minPasswordLen)
		}
	}
	return ""
}

// Masked reports whether the input should be hidden while typing.
func (k Kind) Masked() bool { return k == Password }
