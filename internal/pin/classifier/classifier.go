// Package classifier decides which PIN codes are too guessable to hand out.
//
// A code is NotAllowed when any rule matches. Rules are independent and pure,
// so the universe can be classified in any order or in parallel. The rule
// set is influenced by https://www.datagenetics.com/blog/september32012/.
package classifier

import (
	"regexp"

	"pinpool/internal/pin/models"
)

// Verdict is the outcome of classifying a single code.
type Verdict int

const (
	Allowed Verdict = iota
	NotAllowed
)

func (v Verdict) String() string {
	if v == NotAllowed {
		return "not_allowed"
	}
	return "allowed"
}

// Rule is a named predicate over a valid code.
type Rule struct {
	Name    string
	Example models.Code
	Match   func(models.Code) bool
}

// yearOrLowRange covers the anchored alternatives of the year rule:
// 1900-1999, 2000-2029 and 0000-0009.
var yearOrLowRange = regexp.MustCompile(`^(?:19\d\d|20[0-2]\d|000\d)$`)

var rules = []Rule{
	{Name: "paired_doubles", Example: "5544", Match: pairedDoubles},
	{Name: "ascending_run", Example: "1234", Match: ascendingRun},
	{Name: "descending_run", Example: "4321", Match: descendingRun},
	{Name: "palindrome", Example: "4334", Match: palindrome},
	{Name: "year_or_degenerate", Example: "1999", Match: yearOrDegenerate},
}

// Rules returns the rule set in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify returns NotAllowed if any rule matches code.
func Classify(code models.Code) Verdict {
	for _, r := range rules {
		if r.Match(code) {
			return NotAllowed
		}
	}
	return Allowed
}

// Matches returns the names of every rule that matches code.
func Matches(code models.Code) []string {
	var names []string
	for _, r := range rules {
		if r.Match(code) {
			names = append(names, r.Name)
		}
	}
	return names
}

// 5544
func pairedDoubles(c models.Code) bool {
	return c[0] == c[1] && c[2] == c[3]
}

// 1234; digits above 9 never match.
func ascendingRun(c models.Code) bool {
	d := c.Digits()
	return d[1] == d[0]+1 && d[2] == d[0]+2 && d[3] == d[0]+3
}

// 4321
func descendingRun(c models.Code) bool {
	d := c.Digits()
	return d[1] == d[0]-1 && d[2] == d[0]-2 && d[3] == d[0]-3
}

// 4334
func palindrome(c models.Code) bool {
	return c[0] == c[3] && c[1] == c[2]
}

// yearOrDegenerate flags plausible birth or near-future years, a repeated
// two-digit pair (2727) and the trivially guessable 0000-0009.
// The repeated pair needs a back-reference, which RE2 does not support.
func yearOrDegenerate(c models.Code) bool {
	if c[0:2] == c[2:4] {
		return true
	}
	return yearOrLowRange.MatchString(string(c))
}
