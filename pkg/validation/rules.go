// Package validation holds the field rules shared by request payloads, the
// operator CLI and the registration service.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	NicknameMinLength = 3
	NicknameMaxLength = 50
	PasswordMinLength = 8
)

var nicknamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var standalone = validator.New()

var (
	ErrNicknameTooShort  = fmt.Errorf("must be at least %d characters", NicknameMinLength)
	ErrNicknameTooLong   = fmt.Errorf("must be at most %d characters", NicknameMaxLength)
	ErrNicknameCharset   = errors.New("may only contain letters, numbers, underscores and hyphens")
	ErrPasswordTooShort  = fmt.Errorf("must be at least %d characters", PasswordMinLength)
	ErrPasswordNoUpper   = errors.New("must contain an uppercase letter")
	ErrPasswordNoLower   = errors.New("must contain a lowercase letter")
	ErrPasswordNoDigit   = errors.New("must contain a digit")
	ErrPasswordNoSpecial = errors.New("must contain a special character")
	ErrURLScheme         = errors.New("must be an http or https URL")
	ErrURLHost           = errors.New("must include a valid host")
	ErrEmailInvalid      = errors.New("must be a valid email")
)

// Nickname enforces the length and charset rules for public handles.
func Nickname(value string) error {
	if len(value) < NicknameMinLength {
		return ErrNicknameTooShort
	}
	if len(value) > NicknameMaxLength {
		return ErrNicknameTooLong
	}
	if !nicknamePattern.MatchString(value) {
		return ErrNicknameCharset
	}
	return nil
}

// Password checks complexity only; hashing happens in pkg/security.
func Password(value string) error {
	if len([]rune(value)) < PasswordMinLength {
		return ErrPasswordTooShort
	}
	var upper, lower, digit, special bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	switch {
	case !upper:
		return ErrPasswordNoUpper
	case !lower:
		return ErrPasswordNoLower
	case !digit:
		return ErrPasswordNoDigit
	case !special:
		return ErrPasswordNoSpecial
	}
	return nil
}

// ProfileURL accepts absolute http(s) URLs with a host. Callers skip it for absent values.
func ProfileURL(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t\n") {
		return ErrURLScheme
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return ErrURLScheme
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrURLScheme
	}
	host := u.Hostname()
	if host == "" || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return ErrURLHost
	}
	return nil
}

// Email validates a bare address with the same rule the request validator applies.
func Email(value string) error {
	if err := standalone.Var(strings.TrimSpace(value), "required,email"); err != nil {
		return ErrEmailInvalid
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address for lookups and storage.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
