// contact/validate.go
package contact

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field limits, counted in Unicode code points.
const (
	maxNameLen    = 50
	maxEmailLen   = 50
	maxSubjectLen = 100
	maxMessageLen = 500
)

// Validation failures. The messages are returned verbatim to clients.
var (
	ErrNameRequired    = errors.New("Name cannot be empty")
	ErrEmailRequired   = errors.New("Email cannot be empty")
	ErrMessageRequired = errors.New("Message cannot be empty")
	ErrNameTooLong     = errors.New("Name must be 50 characters or less")
	ErrEmailTooLong    = errors.New("Email must be 50 characters or less")
	ErrSubjectTooLong  = errors.New("Subject must be 100 characters or less")
	ErrMessageTooLong  = errors.New("Message must be 500 characters or less")
	ErrEmailFormat     = errors.New("Invalid email format")
)

// emailPattern matches a local part of word characters and hyphens separated
// by single dots, a domain of dot-separated labels, and a 2-6 letter TLD
// optionally followed by a two-letter country code (e.g. ".co.uk").
var emailPattern = regexp.MustCompile(
	`(?i)^([\w-]+(?:\.[\w-]+)*)@((?:[\w-]+\.)*\w[\w-]{0,66})\.([a-z]{2,6}(?:\.[a-z]{2})?)$`,
)

// Validate checks a submission against the form rules in order and returns
// the first failure, or nil if the submission is acceptable. Subject has no
// non-empty requirement but is length-capped.
func Validate(s Submission) error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(s.Email) == "" {
		return ErrEmailRequired
	}
	if strings.TrimSpace(s.Message) == "" {
		return ErrMessageRequired
	}
	if utf8.RuneCountInString(s.Name) > maxNameLen {
		return ErrNameTooLong
	}
	if utf8.RuneCountInString(s.Email) > maxEmailLen {
		return ErrEmailTooLong
	}
	if utf8.RuneCountInString(s.Subject) > maxSubjectLen {
		return ErrSubjectTooLong
	}
	if utf8.RuneCountInString(s.Message) > maxMessageLen {
		return ErrMessageTooLong
	}
	if !emailPattern.MatchString(s.Email) {
		return ErrEmailFormat
	}
	return nil
}
