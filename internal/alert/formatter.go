package alert

import (
	"fmt"
	"hash/fnv"
	"io"
	"regexp"
	"strconv"
	"time"

	"dexbot/internal/model"
)

// FormatErrorKind classifies a failure to render an event.
type FormatErrorKind string

const (
	// MissingField means a template placeholder had no matching event field.
	MissingField FormatErrorKind = "MISSING_FIELD"
	// UnknownEventType means the event variant has no registered template.
	// This signals a contract mismatch with the event producer and must be
	// escalated, never dropped.
	UnknownEventType FormatErrorKind = "UNKNOWN_EVENT_TYPE"
)

// FormatError reports why an event could not be rendered.
type FormatError struct {
	Kind    FormatErrorKind
	Variant string
	Field   string
}

func (e *FormatError) Error() string {
	if e.Kind == MissingField {
		return fmt.Sprintf("format event %s: missing field %q", e.Variant, e.Field)
	}
	return fmt.Sprintf("format event %s: no registered template", e.Variant)
}

// templates maps each event variant to its message template. Keys are
// case-sensitive; placeholders use {name} syntax and are validated against
// the event's fields before substitution.
var templates = map[string]string{
	"RugPullAlert":  "Rug Pull Alert — Token: {symbol}, Liquidity Drop: {dropPct}%",
	"PumpAlert":     "Pump Detected — Token: {symbol}, Price Change: {changePct}%",
	"TradeExecuted": "Trade Executed — Token: {token}, Amount: {amount}, Action: {action}",
	"TradeFailed":   "Trade Failed — Token: {token}, Amount: {amount}, Reason: {reason}",
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z]+)\}`)

// Formatter renders domain events into deliverable messages targeting the
// configured alert channel.
type Formatter struct {
	ChannelID string
	Bucket    time.Duration

	now func() time.Time // test hook
}

// NewFormatter creates a formatter for the given channel. bucket controls the
// dedup-key time granularity.
func NewFormatter(channelID string, bucket time.Duration) *Formatter {
	return &Formatter{
		ChannelID: channelID,
		Bucket:    bucket,
		now:       time.Now,
	}
}

// Format renders an event through its registered template. Rendering is
// deterministic: the same event always yields byte-identical text. An
// unregistered variant or a placeholder without a matching field fails with
// a typed FormatError.
func (f *Formatter) Format(evt model.Event) (*model.RenderedMessage, error) {
	tmpl, ok := templates[evt.Variant()]
	if !ok {
		return nil, &FormatError{Kind: UnknownEventType, Variant: evt.Variant()}
	}

	fields := evt.Fields()
	var missing string
	text := placeholderPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		value, ok := fields[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}
		return value
	})
	if missing != "" {
		return nil, &FormatError{Kind: MissingField, Variant: evt.Variant(), Field: missing}
	}

	return &model.RenderedMessage{
		Text:            text,
		TargetChannelID: f.ChannelID,
		DedupKey:        f.dedupKey(evt.Variant(), text),
	}, nil
}

// dedupKey hashes the event identity together with a timestamp bucket, so a
// redelivered alert inside the bucket maps to the same key while genuinely
// new occurrences of the same condition later on do not.
func (f *Formatter) dedupKey(variant, text string) string {
	h := fnv.New64a()
	io.WriteString(h, variant)
	io.WriteString(h, "|")
	io.WriteString(h, text)
	io.WriteString(h, "|")
	io.WriteString(h, strconv.FormatInt(f.now().Truncate(f.Bucket).Unix(), 10))
	return strconv.FormatUint(h.Sum64(), 16)
}
