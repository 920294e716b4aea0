package parser

import (
	"strconv"
	"strings"

	"github.com/Alex-AIMS/nz-addresses/internal/normalizer"
)

// TokenSet is a normalized query split into tokens, with the address number
// and the tokens that follow it.
type TokenSet struct {
	Tokens    []string
	Number    *int
	Remainder []string
}

// HasNumber reports whether an address number was found
func (ts TokenSet) HasNumber() bool {
	return ts.Number != nil
}

// Classify finds the first token that parses as a 32-bit base-10 integer.
// Tokens before the number are dropped from the remainder, since NZ addresses
// put the number first.
func Classify(tokens []string) TokenSet {
	ts := TokenSet{Tokens: tokens}
	for i, tok := range tokens {
		n, ok := parseNumber(tok)
		if !ok {
			continue
		}
		ts.Number = &n
		ts.Remainder = tokens[i+1:]
		return ts
	}
	return ts
}

// FirstStreetToken returns the first token that is not an integer, or "".
func FirstStreetToken(tokens []string) string {
	for _, tok := range tokens {
		if _, ok := parseNumber(tok); !ok {
			return tok
		}
	}
	return ""
}

// parseNumber accepts base-10 integers that fit in 32 bits; larger digit runs
// are treated as words
func parseNumber(tok string) (int, bool) {
	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// Segmentation is one street/city split of the remainder. City is empty when
// the whole remainder is the street name.
type Segmentation struct {
	Street string
	City   string
}

// HasCity reports whether a locality was split off
func (s Segmentation) HasCity() bool {
	return s.City != ""
}

// Segment splits the remainder into street and city attempts, in the order
// they should be tried:
//
//	1 token                      street
//	2 tokens, 2nd is road type   street street
//	2 tokens                     street city
//	3+ tokens, 2nd is road type  street street city...
//	3+ tokens                    street city...  then  street street city...
//
// The second attempt of the last row covers two-word street names without a
// road type ("spring creek").
func Segment(remainder []string, roadTypes *normalizer.RoadTypes) []Segmentation {
	switch {
	case len(remainder) == 0:
		return nil
	case len(remainder) == 1:
		return []Segmentation{{Street: remainder[0]}}
	case len(remainder) == 2:
		if roadTypes.IsRoadType(remainder[1]) {
			return []Segmentation{{Street: join(remainder)}}
		}
		return []Segmentation{{Street: remainder[0], City: remainder[1]}}
	}

	twoWord := Segmentation{Street: join(remainder[:2]), City: join(remainder[2:])}
	if roadTypes.IsRoadType(remainder[1]) {
		return []Segmentation{twoWord}
	}
	return []Segmentation{
		{Street: remainder[0], City: join(remainder[1:])},
		twoWord,
	}
}

func join(tokens []string) string {
	return strings.Join(tokens, " ")
}
