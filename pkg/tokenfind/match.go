package tokenfind

import (
	"errors"
	"fmt"
)

// Span holds the byte offsets of a capturing group, Start is -1 if the group did not participate.
type Span struct {
	Start int
	End   int
}

func (s Span) Matched() bool {
	return s.Start >= 0
}

// In returns the spanned part of text, or an empty string for an unmatched span.
func (s Span) In(text string) string {
	if !s.Matched() {
		return ""
	}
	return text[s.Start:s.End]
}

// Extractor finds and converts fields in unstructured response text.
type Extractor struct {
	cache *PatternCache
}

// NewExtractor creates an extractor on top of cache, a nil cache gets a private one.
func NewExtractor(cache *PatternCache) *Extractor {
	if cache == nil {
		cache = NewPatternCache()
	}
	return &Extractor{cache: cache}
}

func (x *Extractor) Cache() *PatternCache {
	return x.cache
}

// MatchSingle locates the only capturing group of pattern in text.
func (x *Extractor) MatchSingle(text, pattern string) (Span, error) {
	re, err := x.cache.Get(pattern)
	if err != nil {
		return Span{-1, -1}, err
	}

	if re.NumSubexp() != 1 {
		return Span{-1, -1}, &PatternError{
			Pattern: pattern,
			Err:     fmt.Errorf("expected exactly one capturing group, got %d", re.NumSubexp()),
		}
	}

	loc := re.FindStringSubmatchIndex(text)
	if loc == nil || loc[2] < 0 {
		return Span{-1, -1}, ErrNoMatch
	}

	return Span{Start: loc[2], End: loc[3]}, nil
}

// MatchMulti locates the first groups capturing groups of pattern in text.
// Groups that did not take part in an otherwise successful match are reported unmatched.
func (x *Extractor) MatchMulti(text, pattern string, groups int) ([]Span, error) {
	if groups < 1 {
		return nil, &PatternError{Pattern: pattern, Err: errors.New("at least one group must be requested")}
	}

	re, err := x.cache.Get(pattern)
	if err != nil {
		return nil, err
	}

	if re.NumSubexp() < groups {
		return nil, &PatternError{
			Pattern: pattern,
			Err:     fmt.Errorf("requested %d groups but pattern only has %d", groups, re.NumSubexp()),
		}
	}

	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, ErrNoMatch
	}

	spans := make([]Span, groups)
	for i := range spans {
		spans[i] = Span{Start: loc[2*(i+1)], End: loc[2*(i+1)+1]}
	}

	return spans, nil
}
