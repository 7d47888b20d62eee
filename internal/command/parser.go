package command

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"dexbot/internal/model"
)

// ParseErrorKind classifies why an inbound text did not produce a trade intent.
type ParseErrorKind string

const (
	// MalformedCommand is a /buy or /sell with the wrong number of fields
	// or a token that fails the symbol grammar.
	MalformedCommand ParseErrorKind = "MALFORMED_COMMAND"
	// InvalidAmount is a /buy or /sell whose amount is not a positive
	// finite decimal.
	InvalidAmount ParseErrorKind = "INVALID_AMOUNT"
	// Unrecognized is free text with no known command prefix. It is routed
	// to a fixed reply, never treated as a fault.
	Unrecognized ParseErrorKind = "UNRECOGNIZED"
)

// ParseError describes a rejected inbound text, keeping the raw input for
// user-facing error messages.
type ParseError struct {
	Kind  ParseErrorKind
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Input, e.Kind)
}

// tokenPattern is the accepted symbol grammar: a letter followed by 1 to 11
// letters or digits.
var tokenPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{1,11}$`)

// Parse turns raw inbound text into a typed trade intent. It recognizes
// exactly "/buy <token> <amount>" and "/sell <token> <amount>"; anything
// else yields a ParseError. Pure and deterministic, no I/O.
func Parse(raw string) (*model.TradeIntent, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, &ParseError{Kind: Unrecognized, Input: raw}
	}

	var action model.Action
	switch fields[0] {
	case "/buy":
		action = model.ActionBuy
	case "/sell":
		action = model.ActionSell
	default:
		return nil, &ParseError{Kind: Unrecognized, Input: raw}
	}

	if len(fields) != 3 {
		return nil, &ParseError{Kind: MalformedCommand, Input: raw}
	}
	token := fields[1]
	if !tokenPattern.MatchString(token) {
		return nil, &ParseError{Kind: MalformedCommand, Input: raw}
	}
	amount, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || amount <= 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return nil, &ParseError{Kind: InvalidAmount, Input: raw}
	}

	return &model.TradeIntent{Action: action, Token: token, Amount: amount}, nil
}
