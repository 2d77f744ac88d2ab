// Package extract evaluates ordered strategy chains against parsed HTML.
// A chain lists the places a field has been observed to live, most
// reliable first, and evaluation stops at the first strategy that
// produces a non-empty value. Markup drift then means appending a
// strategy instead of rewriting an extractor.
package extract

import (
	"regexp"
	"rentscout/lib/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Unknown is the value recorded when every strategy in a chain misses.
const Unknown = "Unknown"

type Kind int

const (
	// KindText selects a node and takes its visible text.
	KindText Kind = iota
	// KindAttr selects a node and takes one of its attributes.
	KindAttr
	// KindRegex captures a group from text, optionally scoped to a
	// selector and optionally sourced from an attribute instead.
	KindRegex
)

type Strategy struct {
	Kind     Kind
	Selector string
	Attr     string
	Pattern  *regexp.Regexp
	// Group is the capture group to take, 1 when zero.
	Group int
}

// Text is shorthand for a KindText strategy.
func Text(selector string) Strategy {
	return Strategy{Kind: KindText, Selector: selector}
}

// Attr is shorthand for a KindAttr strategy.
func Attr(selector, attr string) Strategy {
	return Strategy{Kind: KindAttr, Selector: selector, Attr: attr}
}

// Regex is shorthand for a KindRegex strategy over the selection's text.
func Regex(pattern *regexp.Regexp) Strategy {
	return Strategy{Kind: KindRegex, Pattern: pattern}
}

// First evaluates the chain in order and returns the first non-empty
// value. ok is false when every strategy misses.
func First(sel *goquery.Selection, strategies []Strategy) (string, bool) {
	for _, strategy := range strategies {
		value := evaluate(sel, strategy)
		if value != "" {
			return value, true
		}
	}
	return "", false
}

// FirstOr is First with a fallback for chains whose miss value isn't
// Unknown, like amenity fields that record "None".
func FirstOr(sel *goquery.Selection, strategies []Strategy, fallback string) string {
	if value, ok := First(sel, strategies); ok {
		return value
	}
	return fallback
}

// Value evaluates the chain and falls back to Unknown.
func Value(sel *goquery.Selection, strategies []Strategy) string {
	return FirstOr(sel, strategies, Unknown)
}

func evaluate(sel *goquery.Selection, strategy Strategy) string {
	switch strategy.Kind {
	case KindText:
		return htmlutil.Text(sel.Find(strategy.Selector).First())

	case KindAttr:
		value, exists := sel.Find(strategy.Selector).First().Attr(strategy.Attr)
		if !exists {
			return ""
		}
		return strings.TrimSpace(value)

	case KindRegex:
		if strategy.Pattern == nil {
			return ""
		}
		scope := sel
		if strategy.Selector != "" {
			scope = sel.Find(strategy.Selector).First()
		}

		var source string
		if strategy.Attr != "" {
			source, _ = scope.Attr(strategy.Attr)
		} else {
			source = htmlutil.Text(scope)
		}
		if source == "" {
			return ""
		}

		match := strategy.Pattern.FindStringSubmatch(source)
		group := strategy.Group
		if group == 0 {
			group = 1
		}
		if match == nil || group >= len(match) {
			return ""
		}
		return strings.TrimSpace(match[group])
	}
	return ""
}
