package encode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	identifierPattern = regexp.MustCompile(`(?i)[a-z]\w+`)
	letterPattern     = regexp.MustCompile(`(?i)[a-z]`)
	arithmeticPattern = regexp.MustCompile(`^[\d\s+\-*/().]+$`)
)

// ExpandVars resolves variable references between the entries and collapses
// pure arithmetic expressions to rounded integers. Variables may reference
// each other, so substitution iterates until the set is stable. Entries
// that still contain letters or fail to evaluate keep their literal text.
func ExpandVars(vars map[string]string) map[string]string {
	resolved := make(map[string]string, len(vars))
	for key, value := range vars {
		resolved[key] = value
	}

	for pass := 0; pass < len(resolved)+1; pass++ {
		changed := false
		for key, expr := range resolved {
			next := identifierPattern.ReplaceAllStringFunc(expr, func(word string) string {
				if value, ok := resolved[word]; ok && value != "" && word != key {
					return value
				}
				return word
			})
			if next != expr {
				resolved[key] = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for key, expr := range resolved {
		if letterPattern.MatchString(expr) || !arithmeticPattern.MatchString(expr) {
			continue
		}
		if value, err := evalArithmetic(expr); err == nil {
			resolved[key] = strconv.FormatInt(int64(value+0.5), 10)
		}
	}
	return resolved
}

// evalArithmetic computes +, -, *, / with parentheses over a string that
// already passed the arithmetic character whitelist.
func evalArithmetic(expr string) (float64, error) {
	p := &exprParser{input: expr}
	value, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("trailing input at %d in %q", p.pos, expr)
	}
	return value, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

func (p *exprParser) parseSum() (float64, error) {
	value, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '+' && op != '-' {
			return value, nil
		}
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			value += right
		} else {
			value -= right
		}
	}
}

func (p *exprParser) parseProduct() (float64, error) {
	value, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '*' && op != '/' {
			return value, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			value *= right
		} else {
			if right == 0 {
				return 0, fmt.Errorf("division by zero in %q", p.input)
			}
			value /= right
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	p.skipSpace()
	switch {
	case p.peek() == '(':
		p.pos++
		value, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis in %q", p.input)
		}
		p.pos++
		return value, nil
	case p.peek() == '-':
		p.pos++
		value, err := p.parseTerm()
		return -value, err
	default:
		start := p.pos
		for p.pos < len(p.input) && (p.input[p.pos] >= '0' && p.input[p.pos] <= '9' || p.input[p.pos] == '.') {
			p.pos++
		}
		if start == p.pos {
			return 0, fmt.Errorf("expected number at %d in %q", start, p.input)
		}
		return strconv.ParseFloat(p.input[start:p.pos], 64)
	}
}

// RenderTemplate substitutes {name} tokens with resolved variables and
// splits the result into argument words. Tabs and doubled spaces collapse
// first so the split stays clean.
func RenderTemplate(template string, vars map[string]string) []string {
	rendered := strings.ReplaceAll(template, "\t", " ")
	rendered = strings.ReplaceAll(rendered, "  ", " ")
	for name, value := range vars {
		rendered = strings.ReplaceAll(rendered, "{"+name+"}", value)
	}
	return strings.Fields(rendered)
}
