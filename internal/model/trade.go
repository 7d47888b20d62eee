package model

// Action is the direction of a trade request.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// TradeIntent is a validated, typed representation of a user's requested
// trade, prior to execution. Amount is always positive; Token always matches
// the symbol grammar enforced by the command parser.
type TradeIntent struct {
	Action Action
	Token  string
	Amount float64
}

// TradeStatus is the outcome class of an execution attempt.
type TradeStatus string

const (
	StatusSuccess TradeStatus = "SUCCESS"
	StatusFailure TradeStatus = "FAILURE"
)

// TradeResult is the structured outcome of one execution call. It is created
// by the executor and consumed once by the alert pipeline; callers always
// receive one, even when the underlying transport failed.
type TradeResult struct {
	Intent      TradeIntent
	Status      TradeStatus
	Detail      string
	ExternalRef string
}
