package recorder

import "time"

// TradeRecord is one executed or failed trade.
type TradeRecord struct {
	ID          string
	Action      string
	Token       string
	Amount      float64
	Status      string
	Detail      string
	ExternalRef string
}

// AlertRecord is one market alert received from the monitoring boundary.
type AlertRecord struct {
	ID      string
	Variant string
	Text    string
}

// DeliveryFailure is a message the dispatcher gave up delivering. Recording
// it is what keeps a dropped alert from disappearing silently.
type DeliveryFailure struct {
	ID        string
	ChannelID string
	Text      string
	Reason    string
}

// Summary aggregates recorded activity over a time range.
type Summary struct {
	Trades       int64
	FailedTrades int64
	Alerts       int64
	DroppedMsgs  int64
}

// Recorder persists relay activity for audit and reporting. Writes are
// best-effort: a failed insert is logged by the caller and never blocks or
// rolls back chat delivery.
type Recorder interface {
	RecordTrade(rec *TradeRecord) error
	RecordAlert(rec *AlertRecord) error
	RecordDeliveryFailure(rec *DeliveryFailure) error
	SummarySince(since time.Time) (*Summary, error)
	Close() error
}
