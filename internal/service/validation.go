package service

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Field limits mirrored by the column sizes in database/migrations.
const (
	UsernameMin = 3
	UsernameMax = 50
	EmailMax    = 100
	PasswordMin = 6
	PasswordMax = 72 // bcrypt ignores anything past 72 bytes

	TitleMax       = 200
	DescriptionMax = 5000
	TagNameMax     = 50
	DisplayNameMax = 100
	BioMax         = 1000
	AvatarURLMax   = 255
	CountryMax     = 56
	CompanyMax     = 100
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string { return f.Field + ": " + f.Message }

// ValidationError collects every rejected field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid returns a ValidationError for a single field.
func Invalid(field, msg string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}

type validator struct {
	fields []FieldError
}

func (v *validator) add(field, format string, args ...any) {
	v.fields = append(v.fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

func (v *validator) length(field, s string, min, max int) {
	n := utf8.RuneCountInString(s)
	switch {
	case n < min && min == 1:
		v.add(field, "must not be blank")
	case n < min || n > max:
		v.add(field, "must be between %d and %d characters", min, max)
	}
}

func (v *validator) maxLen(field, s string, max int) {
	if utf8.RuneCountInString(s) > max {
		v.add(field, "must be at most %d characters", max)
	}
}

func (v *validator) username(s string) {
	v.length("username", s, UsernameMin, UsernameMax)
}

func (v *validator) email(s string) {
	if s == "" {
		v.add("email", "must not be blank")
		return
	}
	if utf8.RuneCountInString(s) > EmailMax {
		v.add("email", "must be at most %d characters", EmailMax)
		return
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		v.add("email", "must be a well-formed email address")
	}
}

func (v *validator) password(s string) {
	// bcrypt works on bytes, so the upper bound is in bytes too.
	if utf8.RuneCountInString(s) < PasswordMin || len(s) > PasswordMax {
		v.add("password", "must be between %d characters and %d bytes", PasswordMin, PasswordMax)
	}
}

func (v *validator) url(field, s string) {
	if s == "" {
		return
	}
	v.maxLen(field, s, AvatarURLMax)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.add(field, "must be an absolute http(s) URL")
	}
}
