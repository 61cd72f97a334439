// Package locator validates XPath locators and evaluates them against page source.
package locator

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Strategy is the W3C locator strategy used for every lookup.
const Strategy = "xpath"

// Validate reports whether expr is a non-empty, syntactically valid XPath.
// It never touches the device, so callers can reject bad input up front.
func Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("locator is empty")
	}
	if _, err := xpath.Compile(expr); err != nil {
		return fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return nil
}

// Match reports whether expr selects at least one node of the given page source.
func Match(source, expr string) (bool, error) {
	n, err := Count(source, expr)
	return n > 0, err
}

// Count returns the number of nodes expr selects in source.
func Count(source, expr string) (int, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	doc, err := xmlquery.Parse(strings.NewReader(source))
	if err != nil {
		return 0, fmt.Errorf("parse page source: %w", err)
	}
	return len(xmlquery.QuerySelectorAll(doc, compiled)), nil
}
