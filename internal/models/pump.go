package models

import "github.com/shopspring/decimal"

type PumpState string

const (
	StateBase       PumpState = "BASE"
	StateStarted    PumpState = "STARTED"
	StateConfirmed  PumpState = "CONFIRMED"
	StateCoolingOff PumpState = "COOLING_OFF"
	StateStabilized PumpState = "STABILIZED"
	StateDumped     PumpState = "DUMPED"
	StateRetested   PumpState = "RETESTED"
)

func (s PumpState) String() string { return string(s) }

// Snapshot: строка истории эпизода, одна на обработанную свечу.
type Snapshot struct {
	EpisodeID      string
	Symbol         string
	Open           decimal.Decimal
	Close          decimal.Decimal
	CloseTimeMs    int64
	StartPrice     decimal.Decimal
	MaxPrice       decimal.Decimal
	PctStartToMax  decimal.Decimal
	PctCurrToMax   decimal.Decimal
	RemainingTicks int
	State          PumpState
}

// Episode: сброшенная история одного пампа.
type Episode struct {
	ID        string
	Symbol    string
	Snapshots []Snapshot
}
