package model

import (
	"fmt"
	"strings"
)

// Symbol is a currency pair such as EUR/USD.
type Symbol struct {
	Base  string
	Quote string
}

// DefaultSymbols is the pair universe offered in the selection menu.
var DefaultSymbols = []Symbol{
	{Base: "EUR", Quote: "USD"},
	{Base: "GBP", Quote: "USD"},
	{Base: "USD", Quote: "JPY"},
	{Base: "USD", Quote: "CAD"},
}

// ParseSymbol accepts "EURUSD", "EUR/USD", "eur-usd" and similar forms.
func ParseSymbol(s string) (Symbol, error) {
	clean := strings.ToUpper(strings.TrimSpace(s))
	clean = strings.NewReplacer("/", "", "-", "", "_", "", " ", "").Replace(clean)
	if len(clean) != 6 {
		return Symbol{}, fmt.Errorf("invalid currency pair %q", s)
	}
	for _, r := range clean {
		if r < 'A' || r > 'Z' {
			return Symbol{}, fmt.Errorf("invalid currency pair %q", s)
		}
	}
	return Symbol{Base: clean[:3], Quote: clean[3:]}, nil
}

// ParseSymbols parses a comma separated list, skipping empty entries.
func ParseSymbols(list string) ([]Symbol, error) {
	var out []Symbol
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sym, err := ParseSymbol(part)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, nil
}

func (s Symbol) String() string {
	return s.Base + s.Quote
}

// Slash formats the pair the way Twelve Data expects it.
func (s Symbol) Slash() string {
	return s.Base + "/" + s.Quote
}

func (s Symbol) IsZero() bool {
	return s.Base == "" && s.Quote == ""
}
