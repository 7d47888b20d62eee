package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "relay.db")
	r, err := NewSQLiteRecorder(dbPath)
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer r.Close()

	if err := r.RecordTrade(&TradeRecord{
		ID: uuid.NewString(), Action: "buy", Token: "SOL", Amount: 2.5,
		Status: "SUCCESS", Detail: "filled", ExternalRef: "tx-1",
	}); err != nil {
		t.Fatalf("record trade: %v", err)
	}
	if err := r.RecordTrade(&TradeRecord{
		ID: uuid.NewString(), Action: "sell", Token: "SOL", Amount: 1,
		Status: "FAILURE", Detail: "timeout",
	}); err != nil {
		t.Fatalf("record trade: %v", err)
	}
	if err := r.RecordAlert(&AlertRecord{
		ID: uuid.NewString(), Variant: "RugPullAlert", Text: "rendered",
	}); err != nil {
		t.Fatalf("record alert: %v", err)
	}
	if err := r.RecordDeliveryFailure(&DeliveryFailure{
		ID: uuid.NewString(), ChannelID: "ch", Text: "lost", Reason: "transport",
	}); err != nil {
		t.Fatalf("record delivery failure: %v", err)
	}

	s, err := r.SummarySince(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Trades != 2 || s.FailedTrades != 1 || s.Alerts != 1 || s.DroppedMsgs != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}

	empty, err := r.SummarySince(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if empty.Trades != 0 || empty.Alerts != 0 {
		t.Errorf("expected empty future summary, got %+v", empty)
	}
}
