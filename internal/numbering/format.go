package numbering

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadFormat indicates a template without the mandatory {number} placeholder.
var ErrBadFormat = errors.New("numbering: format must contain {number}")

// ValidateFormat checks that a format template is usable.
func ValidateFormat(format string) error {
	if !strings.Contains(format, "{number}") {
		return ErrBadFormat
	}
	return nil
}

// Format renders a document number from a template, substituting
// {prefix}, {year} and the zero-padded {number}.
func Format(format, prefix string, year int, number int64, padding int) (string, error) {
	if err := ValidateFormat(format); err != nil {
		return "", err
	}
	if padding <= 0 {
		padding = 1
	}
	out := strings.ReplaceAll(format, "{prefix}", prefix)
	out = strings.ReplaceAll(out, "{year}", strconv.Itoa(year))
	out = strings.ReplaceAll(out, "{number}", fmt.Sprintf("%0*d", padding, number))
	return out, nil
}
