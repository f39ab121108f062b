package models

import "fmt"

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionOpenOrIncrease
	ActionClose
)

func (k ActionKind) String() string {
	switch k {
	case ActionOpenOrIncrease:
		return "open_or_increase"
	case ActionClose:
		return "close"
	default:
		return "none"
	}
}

// Action: решение по символу на текущей свече.
type Action struct {
	Kind        ActionKind
	Symbol      string
	State       PumpState
	NotionalUSD float64 // только для OpenOrIncrease
}

func (a Action) IsNone() bool { return a.Kind == ActionNone }

func (a Action) String() string {
	if a.Kind == ActionOpenOrIncrease {
		return fmt.Sprintf("%s %s %s $%.2f", a.Kind, a.Symbol, a.State, a.NotionalUSD)
	}
	return fmt.Sprintf("%s %s %s", a.Kind, a.Symbol, a.State)
}
