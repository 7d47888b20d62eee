package model

import "strconv"

// Event is a domain occurrence (trade outcome or market condition) that must
// be rendered and delivered as a notification. Variant returns the
// case-sensitive template key; Fields returns the placeholder values the
// template may reference.
type Event interface {
	Variant() string
	Fields() map[string]string
}

// RugPullAlert signals a sudden liquidity drop detected by the external
// monitoring collaborator.
type RugPullAlert struct {
	Symbol  string
	DropPct float64
}

func (e RugPullAlert) Variant() string { return "RugPullAlert" }

func (e RugPullAlert) Fields() map[string]string {
	return map[string]string{
		"symbol":  e.Symbol,
		"dropPct": formatDecimal(e.DropPct),
	}
}

// PumpAlert signals an abnormal upward price move detected by the external
// monitoring collaborator.
type PumpAlert struct {
	Symbol    string
	ChangePct float64
}

func (e PumpAlert) Variant() string { return "PumpAlert" }

func (e PumpAlert) Fields() map[string]string {
	return map[string]string{
		"symbol":    e.Symbol,
		"changePct": formatDecimal(e.ChangePct),
	}
}

// TradeExecuted reports a successful trade execution.
type TradeExecuted struct {
	Token  string
	Amount float64
	Action Action
}

func (e TradeExecuted) Variant() string { return "TradeExecuted" }

func (e TradeExecuted) Fields() map[string]string {
	return map[string]string{
		"token":  e.Token,
		"amount": formatDecimal(e.Amount),
		"action": string(e.Action),
	}
}

// TradeFailed reports a trade that could not be executed.
type TradeFailed struct {
	Token  string
	Amount float64
	Reason string
}

func (e TradeFailed) Variant() string { return "TradeFailed" }

func (e TradeFailed) Fields() map[string]string {
	return map[string]string{
		"token":  e.Token,
		"amount": formatDecimal(e.Amount),
		"reason": e.Reason,
	}
}

// formatDecimal renders a float with the shortest exact representation,
// so 83.0 becomes "83" and 2.5 stays "2.5".
func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
