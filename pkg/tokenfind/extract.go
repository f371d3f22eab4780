package tokenfind

import (
	"strconv"
	"strings"
)

// Int extracts the capturing group of pattern as a signed integer in the given base.
func (x *Extractor) Int(text, pattern string, base int) (int64, error) {
	span, err := x.MatchSingle(text, pattern)
	if err != nil {
		return 0, err
	}
	return ParseInt(span.In(text), base)
}

// Uint extracts the capturing group of pattern as an unsigned integer in the given base.
func (x *Extractor) Uint(text, pattern string, base int) (uint64, error) {
	span, err := x.MatchSingle(text, pattern)
	if err != nil {
		return 0, err
	}
	return ParseUint(span.In(text), base)
}

// Float extracts the capturing group of pattern as a decimal floating point number.
func (x *Extractor) Float(text, pattern string) (float64, error) {
	span, err := x.MatchSingle(text, pattern)
	if err != nil {
		return 0, err
	}
	return ParseFloat(span.In(text))
}

// String extracts the capturing group of pattern, cut to at most maxLen bytes when maxLen > 0.
func (x *Extractor) String(text, pattern string, maxLen int) (string, error) {
	span, err := x.MatchSingle(text, pattern)
	if err != nil {
		return "", err
	}

	value := span.In(text)
	if maxLen > 0 && len(value) > maxLen {
		value = value[:maxLen]
	}
	return value, nil
}

// ParseInt converts s in the given base, a 0x prefix is accepted for base 16.
func ParseInt(s string, base int) (int64, error) {
	digits := strings.TrimSpace(s)
	if base == 16 {
		digits = trimHexPrefix(digits)
	}

	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return 0, &ConversionError{Value: s, Err: unwrapNumError(err)}
	}
	return v, nil
}

func ParseUint(s string, base int) (uint64, error) {
	digits := strings.TrimSpace(s)
	if base == 16 {
		digits = trimHexPrefix(digits)
	}

	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, &ConversionError{Value: s, Err: unwrapNumError(err)}
	}
	return v, nil
}

func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &ConversionError{Value: s, Err: unwrapNumError(err)}
	}
	return v, nil
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// unwrapNumError leaves strconv.ErrRange or strconv.ErrSyntax
func unwrapNumError(err error) error {
	if numErr, ok := err.(*strconv.NumError); ok {
		return numErr.Err
	}
	return err
}
