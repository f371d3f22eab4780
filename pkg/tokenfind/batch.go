package tokenfind

import (
	"errors"
	"slices"
	"strconv"
)

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// ErrUnknownVariant marks an enum code outside of the known set.
var ErrUnknownVariant = errors.New("unknown enum variant")

// Field describes how to find one value in a response and where to store it in a record of type T.
// Fields are stateless and can be applied to any number of responses.
type Field[T any] struct {
	Name    string
	Pattern string
	apply   func(x *Extractor, text string, rec *T) error
}

func IntField[T any, V signed](name, pattern string, base int, set func(*T, V)) Field[T] {
	return Field[T]{
		Name:    name,
		Pattern: pattern,
		apply: func(x *Extractor, text string, rec *T) error {
			v, err := x.Int(text, pattern, base)
			if err != nil {
				return err
			}
			if int64(V(v)) != v {
				return &ConversionError{Value: strconv.FormatInt(v, 10), Err: strconv.ErrRange}
			}
			set(rec, V(v))
			return nil
		},
	}
}

func UintField[T any, V unsigned](name, pattern string, base int, set func(*T, V)) Field[T] {
	return Field[T]{
		Name:    name,
		Pattern: pattern,
		apply: func(x *Extractor, text string, rec *T) error {
			v, err := x.Uint(text, pattern, base)
			if err != nil {
				return err
			}
			if uint64(V(v)) != v {
				return &ConversionError{Value: strconv.FormatUint(v, 10), Err: strconv.ErrRange}
			}
			set(rec, V(v))
			return nil
		},
	}
}

func FloatField[T any, V ~float32 | ~float64](name, pattern string, set func(*T, V)) Field[T] {
	return Field[T]{
		Name:    name,
		Pattern: pattern,
		apply: func(x *Extractor, text string, rec *T) error {
			v, err := x.Float(text, pattern)
			if err != nil {
				return err
			}
			set(rec, V(v))
			return nil
		},
	}
}

func StringField[T any](name, pattern string, maxLen int, set func(*T, string)) Field[T] {
	return Field[T]{
		Name:    name,
		Pattern: pattern,
		apply: func(x *Extractor, text string, rec *T) error {
			v, err := x.String(text, pattern, maxLen)
			if err != nil {
				return err
			}
			set(rec, v)
			return nil
		},
	}
}

// EnumField parses a decimal code and only stores it if it is one of variants.
func EnumField[T any, E signed](name, pattern string, variants []E, set func(*T, E)) Field[T] {
	return Field[T]{
		Name:    name,
		Pattern: pattern,
		apply: func(x *Extractor, text string, rec *T) error {
			v, err := x.Int(text, pattern, 10)
			if err != nil {
				return err
			}
			if int64(E(v)) != v || !slices.Contains(variants, E(v)) {
				return &ConversionError{Value: strconv.FormatInt(v, 10), Err: ErrUnknownVariant}
			}
			set(rec, E(v))
			return nil
		},
	}
}

// Batch applies every field to text and stores the successful ones in rec.
// Fields that are absent or malformed leave their target untouched.
// The number of stored fields is returned, callers needing completeness must check it.
func Batch[T any](x *Extractor, text string, rec *T, fields []Field[T]) int {
	n, _ := BatchReport(x, text, rec, fields)
	return n
}

// BatchReport works like Batch and also returns a *FieldError for each field that was not stored.
func BatchReport[T any](x *Extractor, text string, rec *T, fields []Field[T]) (int, []error) {
	var errs []error
	succeeded := 0

	for _, f := range fields {
		if f.apply == nil {
			errs = append(errs, &FieldError{Field: f.Name, Err: errors.New("field has no parser")})
			continue
		}

		if err := f.apply(x, text, rec); err != nil {
			errs = append(errs, &FieldError{Field: f.Name, Err: err})
			continue
		}
		succeeded++
	}

	return succeeded, errs
}
