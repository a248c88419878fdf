// Package dice rolls the dice expressions unit profiles carry, e.g. "3",
// "2d6", "d6+2", "2d3x2".
package dice

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var exprRe = regexp.MustCompile(`(?i)^\s*(\d+)?\s*d\s*(\d+)(\s*([+\-x*])\s*(\d+))?\s*$`)

// Check reports whether an expression can be rolled. Profile loaders call
// it so a broken stat is rejected at load time instead of rolling 0 (or
// worse) mid-match.
func Check(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return fmt.Errorf("empty dice expression")
	}
	if _, err := strconv.Atoi(expr); err == nil {
		return nil
	}
	m := exprRe.FindStringSubmatch(expr)
	if m == nil {
		return fmt.Errorf("bad dice expression %q", expr)
	}
	if sides, _ := strconv.Atoi(m[2]); sides < 1 {
		return fmt.Errorf("bad dice expression %q: die needs at least one side", expr)
	}
	return nil
}

// Roller wraps a rand source so tests can seed rolls deterministically.
type Roller struct {
	r *rand.Rand
}

// New returns a time-seeded roller.
func New() *Roller {
	return &Roller{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeeded returns a roller with a fixed seed.
func NewSeeded(seed int64) *Roller {
	return &Roller{r: rand.New(rand.NewSource(seed))}
}

// D6 rolls one six-sided die.
func (ro *Roller) D6() int { return 1 + ro.r.Intn(6) }

// Charge rolls the 2d6 charge distance.
func (ro *Roller) Charge() int { return ro.D6() + ro.D6() }

// Expr rolls a dice expression. Supports plain integers, NdM, NdM+K, NdM-K
// and NdM xK / NdM*K. Unparseable expressions and zero-sided dice roll 0;
// Check rejects both up front.
func (ro *Roller) Expr(expr string) int {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0
	}
	if n, err := strconv.Atoi(expr); err == nil {
		return n
	}
	m := exprRe.FindStringSubmatch(expr)
	if m == nil {
		return 0
	}
	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
	}
	sides, _ := strconv.Atoi(m[2])
	if sides < 1 {
		return 0
	}
	total := 0
	for i := 0; i < count; i++ {
		total += 1 + ro.r.Intn(sides)
	}
	if m[3] != "" {
		k, _ := strconv.Atoi(m[5])
		switch m[4] {
		case "+":
			total += k
		case "-":
			total -= k
		case "x", "*", "X":
			total *= k
		}
	}
	if total < 0 {
		total = 0
	}
	return total
}

// MaxOf returns the largest value an expression can roll, used when a rule
// converts a roll into its maximum. Unparseable expressions return 0.
func MaxOf(expr string) int {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0
	}
	if n, err := strconv.Atoi(expr); err == nil {
		return n
	}
	m := exprRe.FindStringSubmatch(expr)
	if m == nil {
		return 0
	}
	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
	}
	sides, _ := strconv.Atoi(m[2])
	if sides < 1 {
		return 0
	}
	total := count * sides
	if m[3] != "" {
		k, _ := strconv.Atoi(m[5])
		switch m[4] {
		case "+":
			total += k
		case "-":
			total -= k
		case "x", "*", "X":
			total *= k
		}
	}
	if total < 0 {
		total = 0
	}
	return total
}
