package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/sceneforged/sceneforged/internal/events"
)

// TaskDeliver is the asynq task type for one outbound webhook POST.
const TaskDeliver = "webhook:deliver"

// Subscription is one registered outbound webhook (the webhook_subscriptions
// table): a URL, an HMAC signing secret, and the event kinds it wants.
type Subscription struct {
	ID      string
	URL     string
	Secret  string
	Events  []string
	Enabled bool
}

func (s Subscription) wants(kind events.Kind) bool {
	if len(s.Events) == 0 {
		return true
	}
	for _, e := range s.Events {
		if e == string(kind) {
			return true
		}
	}
	return false
}

// deliveryPayload is the asynq task payload: everything HandleDeliver needs
// without a database round trip.
type deliveryPayload struct {
	URL    string          `json:"url"`
	Secret string          `json:"secret"`
	Event  events.Event    `json:"event"`
	Body   json.RawMessage `json:"body"`
}

// Dispatcher enqueues outbound deliveries via asynq/redis, retrying
// transient failures the way CineVault's own asynq-backed job queue does
// (this pack's dep is NOT reused for Sceneforged's own job queue — that's
// the atomic-SQL-dequeue in internal/store/internal/scheduler — but fits
// exactly the retry/backoff shape this outbound delivery path needs).
type Dispatcher struct {
	client *asynq.Client
	log    zerolog.Logger
}

// NewDispatcher connects to redisAddr.
func NewDispatcher(redisAddr string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
		log:    log.With().Str("component", "webhook_dispatcher").Logger(),
	}
}

func (d *Dispatcher) Close() error { return d.client.Close() }

// Bridge subscribes to the event bus and enqueues a delivery task for every
// registered subscription whose Events filter matches, per spec §6's
// mention of arr/Jellyfin-style outbound notification.
type Bridge struct {
	dispatcher    *Dispatcher
	subscriptions func() []Subscription
	log           zerolog.Logger
}

// NewBridge wires dispatcher against subscriptions, a lookup function so the
// subscription list can be refreshed from the store without this package
// importing internal/store directly.
func NewBridge(dispatcher *Dispatcher, subscriptions func() []Subscription, log zerolog.Logger) *Bridge {
	return &Bridge{dispatcher: dispatcher, subscriptions: subscriptions, log: log.With().Str("component", "webhook_bridge").Logger()}
}

// Run subscribes to bus and enqueues deliveries until ctx is done.
func (b *Bridge) Run(ctx context.Context, bus *events.Bus) {
	id, ch, _ := bus.Subscribe(events.CategoryAdmin)
	defer bus.Unsubscribe(id)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if e.Type != events.KindCompleted && e.Type != events.KindFailed {
				continue
			}
			b.fanOut(e)
		}
	}
}

func (b *Bridge) fanOut(e events.Event) {
	body, err := json.Marshal(e)
	if err != nil {
		b.log.Error().Err(err).Msg("marshal event for webhook delivery")
		return
	}
	for _, sub := range b.subscriptions() {
		if !sub.Enabled || !sub.wants(e.Type) {
			continue
		}
		if err := b.dispatcher.Enqueue(sub, e, body); err != nil {
			b.log.Error().Err(err).Str("subscription", sub.ID).Msg("enqueue webhook delivery failed")
		}
	}
}

// Enqueue submits one delivery task, retried by asynq's own backoff on
// failure (distinct from and layered on top of the job-level retry in C8).
func (d *Dispatcher) Enqueue(sub Subscription, e events.Event, body []byte) error {
	payload, err := json.Marshal(deliveryPayload{URL: sub.URL, Secret: sub.Secret, Event: e, Body: body})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskDeliver, payload)
	_, err = d.client.Enqueue(task, asynq.MaxRetry(5), asynq.Timeout(10*time.Second), asynq.Queue("webhooks"))
	return err
}

// NewServer builds the asynq worker server and its handler mux, ready for
// server.Run(mux) in cmd/sceneforgedd.
func NewServer(redisAddr string, concurrency int, log zerolog.Logger) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{Concurrency: concurrency})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskDeliver, handleDeliver(log))
	return srv, mux
}

// handleDeliver POSTs the event JSON to the subscription URL, signing the
// body with HMAC-SHA256 over Secret the way CineVault's webhook sender signs
// nothing but arr/Jellyfin-style webhook consumers universally expect
// (`X-Signature` header), generalized from the postJSON helper's shape.
func handleDeliver(log zerolog.Logger) asynq.HandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}
	return func(ctx context.Context, t *asynq.Task) error {
		var p deliveryPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("webhook: bad payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(p.Body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Event-Type", string(p.Event.Type))
		if p.Secret != "" {
			req.Header.Set("X-Signature", sign(p.Secret, p.Body))
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("webhook post: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			// 5xx is worth asynq's retry; 4xx means the subscriber rejected
			// the payload shape and retrying won't help.
			return fmt.Errorf("webhook: subscriber returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			log.Warn().Int("status", resp.StatusCode).Str("url", p.URL).Msg("webhook rejected, not retrying")
		}
		return nil
	}
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
