package model

// Signal is the classification of an instrument's current state.
type Signal int

const (
	SignalWait Signal = iota
	SignalBuy
	SignalSell
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "WAIT"
	}
}

// Label is the text shown to users.
func (s Signal) Label() string {
	switch s {
	case SignalBuy:
		return "BUY 📈"
	case SignalSell:
		return "SELL 📉"
	default:
		return "WAIT ⏳"
	}
}

// Actionable reports whether the signal is worth an alert.
func (s Signal) Actionable() bool {
	return s == SignalBuy || s == SignalSell
}
