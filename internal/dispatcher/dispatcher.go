package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dexbot/internal/alert"
	"dexbot/internal/command"
	"dexbot/internal/model"
	"dexbot/internal/recorder"

	"github.com/google/uuid"
)

// Stage identifies where a unit of work is in its lifecycle. Delivered is
// terminal; any stage can exit early to a logged failure.
type Stage string

const (
	StageReceived  Stage = "RECEIVED"
	StageParsed    Stage = "PARSED"
	StageExecuted  Stage = "EXECUTED"
	StageFormatted Stage = "FORMATTED"
	StageDelivered Stage = "DELIVERED"
)

// Executor abstracts the trade-execution boundary.
type Executor interface {
	Execute(ctx context.Context, intent model.TradeIntent) (*model.TradeResult, error)
}

// Deliverer abstracts the notification channel.
type Deliverer interface {
	Deliver(msg *model.RenderedMessage) error
}

const helpText = "DexBot Trading Relay\n\n" +
	"Available commands:\n" +
	"/buy <token> <amount> - execute a buy order\n" +
	"/sell <token> <amount> - execute a sell order\n" +
	"/alerts on|off - toggle market alerts"

const notRecognizedText = "Command not recognized. Use /start for available commands"

// Dispatcher routes inbound chat messages and externally raised events
// through parse, execute, format, and deliver. All collaborators are
// injected at construction; there is no ambient state.
type Dispatcher struct {
	executor  Executor
	formatter *alert.Formatter
	channel   Deliverer
	recorder  recorder.Recorder
	blacklist map[string]struct{}

	alertsOn     atomic.Bool
	retryBackoff time.Duration

	inbound <-chan model.InboundMessage
	events  <-chan model.Event
}

// New creates a dispatcher. blacklist tokens are matched case-insensitively.
func New(exec Executor, formatter *alert.Formatter, channel Deliverer, rec recorder.Recorder,
	blacklist []string, inbound <-chan model.InboundMessage, events <-chan model.Event) *Dispatcher {

	d := &Dispatcher{
		executor:     exec,
		formatter:    formatter,
		channel:      channel,
		recorder:     rec,
		blacklist:    make(map[string]struct{}, len(blacklist)),
		retryBackoff: 2 * time.Second,
		inbound:      inbound,
		events:       events,
	}
	for _, token := range blacklist {
		d.blacklist[strings.ToUpper(token)] = struct{}{}
	}
	d.alertsOn.Store(true)
	return d
}

// Run consumes the work queue until ctx is cancelled, then waits for
// in-flight units. Each unit runs in its own goroutine; ordering toward a
// given chat channel is enforced downstream by the notification channel.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			log.Println("[INFO] dispatcher stopped")
			return
		case msg := <-d.inbound:
			wg.Add(1)
			go func() {
				defer wg.Done()
				d.HandleInbound(ctx, msg)
			}()
		case evt := <-d.events:
			wg.Add(1)
			go func() {
				defer wg.Done()
				d.HandleEvent(ctx, evt)
			}()
		}
	}
}

// HandleInbound processes one chat message. Commands are resolved by a
// single prefix switch rather than a handler registry.
func (d *Dispatcher) HandleInbound(ctx context.Context, msg model.InboundMessage) {
	id := shortID()
	log.Printf("[INFO] [%s] received from %s: %s", id, msg.SenderID, msg.Text)

	fields := strings.Fields(msg.Text)
	prefix := ""
	if len(fields) > 0 {
		prefix = fields[0]
	}
	switch prefix {
	case "/start", "/help":
		d.reply(ctx, id, msg.SenderID, helpText)
	case "/alerts":
		d.toggleAlerts(ctx, id, msg.SenderID, fields)
	default:
		d.handleTrade(ctx, id, msg)
	}
}

// HandleEvent processes one externally raised event; the chain starts at
// the formatting stage.
func (d *Dispatcher) HandleEvent(ctx context.Context, evt model.Event) {
	id := shortID()
	switch evt.(type) {
	case model.RugPullAlert, model.PumpAlert:
		if !d.alertsOn.Load() {
			log.Printf("[INFO] [%s] alerts disabled, skipping %s", id, evt.Variant())
			return
		}
	}
	text, err := d.dispatchEvent(ctx, id, evt)
	if err != nil {
		d.failed(id, StageFormatted, err)
		return
	}
	if err := d.recorder.RecordAlert(&recorder.AlertRecord{
		ID:      uuid.NewString(),
		Variant: evt.Variant(),
		Text:    text,
	}); err != nil {
		log.Printf("[ERROR] [%s] record alert: %v", id, err)
	}
}

func (d *Dispatcher) handleTrade(ctx context.Context, id string, msg model.InboundMessage) {
	intent, err := command.Parse(msg.Text)
	if err != nil {
		var perr *command.ParseError
		if errors.As(err, &perr) && perr.Kind == command.InvalidAmount {
			d.reply(ctx, id, msg.SenderID,
				fmt.Sprintf("Invalid amount in %q: amount must be a positive number", perr.Input))
		} else {
			d.reply(ctx, id, msg.SenderID, notRecognizedText)
		}
		d.failed(id, StageReceived, err)
		return
	}

	if _, banned := d.blacklist[strings.ToUpper(intent.Token)]; banned {
		d.reply(ctx, id, msg.SenderID,
			fmt.Sprintf("Token %s is blacklisted, trade refused", intent.Token))
		d.failed(id, StageParsed, fmt.Errorf("token %s is blacklisted", intent.Token))
		return
	}

	result, execErr := d.executor.Execute(ctx, *intent)
	if execErr != nil {
		log.Printf("[WARN] [%s] execution failed: %v", id, execErr)
	}
	if err := d.recorder.RecordTrade(&recorder.TradeRecord{
		ID:          uuid.NewString(),
		Action:      string(result.Intent.Action),
		Token:       result.Intent.Token,
		Amount:      result.Intent.Amount,
		Status:      string(result.Status),
		Detail:      result.Detail,
		ExternalRef: result.ExternalRef,
	}); err != nil {
		log.Printf("[ERROR] [%s] record trade: %v", id, err)
	}

	var evt model.Event
	if result.Status == model.StatusSuccess {
		evt = model.TradeExecuted{Token: intent.Token, Amount: intent.Amount, Action: intent.Action}
	} else {
		evt = model.TradeFailed{Token: intent.Token, Amount: intent.Amount, Reason: failureReason(result)}
	}
	if _, err := d.dispatchEvent(ctx, id, evt); err != nil {
		d.failed(id, StageExecuted, err)
		return
	}
	if result.Status != model.StatusSuccess {
		d.failed(id, StageExecuted, fmt.Errorf("trade failed: %s", result.Detail))
	}
}

// dispatchEvent formats an event and delivers it, returning the delivered
// text. An unknown variant is escalated: it signals a contract mismatch
// with the event producer, not user error.
func (d *Dispatcher) dispatchEvent(ctx context.Context, id string, evt model.Event) (string, error) {
	msg, err := d.formatter.Format(evt)
	if err != nil {
		var ferr *alert.FormatError
		if errors.As(err, &ferr) && ferr.Kind == alert.UnknownEventType {
			log.Printf("[ERROR] [%s] no template for event variant %q, escalating: %v", id, evt.Variant(), err)
			return "", err
		}
		// Known variant with malformed fields: recover into a generic notice.
		log.Printf("[WARN] [%s] malformed %s event: %v", id, evt.Variant(), err)
		msg = &model.RenderedMessage{
			Text:            fmt.Sprintf("Alert could not be rendered (%s)", evt.Variant()),
			TargetChannelID: d.formatter.ChannelID,
			DedupKey:        uuid.NewString(),
		}
	}
	if err := d.deliver(ctx, id, msg); err != nil {
		return "", err
	}
	return msg.Text, nil
}

// deliver submits a message to the notification channel, retrying once
// after a backoff. A message dropped after the retry is always recorded
// and logged, never silently discarded.
func (d *Dispatcher) deliver(ctx context.Context, id string, msg *model.RenderedMessage) error {
	err := d.channel.Deliver(msg)
	if err == nil {
		log.Printf("[INFO] [%s] %s", id, StageDelivered)
		return nil
	}
	log.Printf("[WARN] [%s] delivery failed, retrying once: %v", id, err)
	select {
	case <-time.After(d.retryBackoff):
	case <-ctx.Done():
		// fall through to the final attempt so shutdown never drops a
		// message without a record
	}
	if err = d.channel.Deliver(msg); err == nil {
		log.Printf("[INFO] [%s] %s", id, StageDelivered)
		return nil
	}
	log.Printf("[ERROR] [%s] message dropped after retry: %v", id, err)
	if recErr := d.recorder.RecordDeliveryFailure(&recorder.DeliveryFailure{
		ID:        uuid.NewString(),
		ChannelID: msg.TargetChannelID,
		Text:      msg.Text,
		Reason:    err.Error(),
	}); recErr != nil {
		log.Printf("[ERROR] [%s] record delivery failure: %v", id, recErr)
	}
	return err
}

// reply sends a direct response to the sender's chat, bypassing the
// formatter. The dedup key is unique: ad hoc replies are never deduplicated.
func (d *Dispatcher) reply(ctx context.Context, id, senderID, text string) {
	msg := &model.RenderedMessage{
		Text:            text,
		TargetChannelID: senderID,
		DedupKey:        uuid.NewString(),
	}
	d.deliver(ctx, id, msg)
}

func (d *Dispatcher) toggleAlerts(ctx context.Context, id, senderID string, fields []string) {
	if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
		d.reply(ctx, id, senderID, "Usage: /alerts on|off")
		return
	}
	on := fields[1] == "on"
	d.alertsOn.Store(on)
	if on {
		d.reply(ctx, id, senderID, "Market alerts enabled")
	} else {
		d.reply(ctx, id, senderID, "Market alerts disabled")
	}
	log.Printf("[INFO] [%s] market alerts set to %v", id, on)
}

// failed logs a unit's terminal failure state. Malformed input and remote
// execution failures are recoverable and already reported to the user; this
// is the audit trail, not an escalation.
func (d *Dispatcher) failed(id string, stage Stage, err error) {
	log.Printf("[INFO] [%s] failed at %s: %v", id, stage, err)
}

func shortID() string {
	return uuid.NewString()[:8]
}

func failureReason(result *model.TradeResult) string {
	if result.Detail != "" {
		return result.Detail
	}
	return "execution failed"
}
