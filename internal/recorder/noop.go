package recorder

import "time"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTrade(_ *TradeRecord) error               { return nil }
func (n *NoopRecorder) RecordAlert(_ *AlertRecord) error               { return nil }
func (n *NoopRecorder) RecordDeliveryFailure(_ *DeliveryFailure) error { return nil }
func (n *NoopRecorder) SummarySince(_ time.Time) (*Summary, error)     { return &Summary{}, nil }
func (n *NoopRecorder) Close() error                                   { return nil }
