package scheduler

import (
	"fmt"
	"log"
	"time"

	"dexbot/internal/model"
	"dexbot/internal/recorder"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Deliverer abstracts the notification channel.
type Deliverer interface {
	Deliver(msg *model.RenderedMessage) error
}

// Scheduler runs the periodic summary report.
type Scheduler struct {
	Cron      *cron.Cron
	Recorder  recorder.Recorder
	Channel   Deliverer
	ChannelID string
}

// NewScheduler creates a new Scheduler targeting the alert channel.
func NewScheduler(rec recorder.Recorder, ch Deliverer, channelID string) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Recorder:  rec,
		Channel:   ch,
		ChannelID: channelID,
	}
}

// Register adds the daily summary task.
func (s *Scheduler) Register(summaryCron string) error {
	if _, err := s.Cron.AddFunc(summaryCron, s.dailySummary); err != nil {
		return fmt.Errorf("register summary task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) dailySummary() {
	log.Println("[INFO] running daily summary")
	sum, err := s.Recorder.SummarySince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		log.Printf("[ERROR] daily summary query: %v", err)
		return
	}

	text := fmt.Sprintf(
		"Daily Summary\nTrades: %s (failed: %s)\nMarket alerts: %s\nDropped messages: %s",
		humanize.Comma(sum.Trades),
		humanize.Comma(sum.FailedTrades),
		humanize.Comma(sum.Alerts),
		humanize.Comma(sum.DroppedMsgs),
	)
	msg := &model.RenderedMessage{
		Text:            text,
		TargetChannelID: s.ChannelID,
		DedupKey:        uuid.NewString(),
	}
	if err := s.Channel.Deliver(msg); err != nil {
		log.Printf("[ERROR] send daily summary: %v", err)
	}
}
