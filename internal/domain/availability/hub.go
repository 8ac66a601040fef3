package availability

import (
	"context"
	"encoding/json"
	"expvar"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// changesChannel carries room ids whose availability changed, across all instances.
const changesChannel = "availability:changed"

var (
	watchersGauge        = expvar.NewInt("availability_watchers")
	watchEventsSentTotal = expvar.NewInt("availability_events_sent_total")
	watchEventsDropped   = expvar.NewInt("availability_events_dropped_total")
)

// EventType for WebSocket messages
type EventType string

const (
	EventAvailability EventType = "availability"
	EventError        EventType = "error"
)

// WSEvent is pushed to watchers after every change to their room.
type WSEvent struct {
	Type            EventType        `json:"type"`
	RoomID          uuid.UUID        `json:"room_id"`
	UnavailableDays []calendar.Day   `json:"unavailable_days,omitempty"`
	Selection       *SelectionUpdate `json:"selection,omitempty"`
	Message         string           `json:"message,omitempty"`
}

// Watcher is one open availability view, optionally holding a candidate range.
type Watcher struct {
	RoomID    uuid.UUID
	Window    calendar.DateRange
	Selection *Selection
	Conn      *websocket.Conn
	Send      chan []byte
}

func NewWatcher(roomID uuid.UUID, window calendar.DateRange, conn *websocket.Conn) *Watcher {
	return &Watcher{
		RoomID:    roomID,
		Window:    window,
		Selection: NewSelection(),
		Conn:      conn,
		Send:      make(chan []byte, 32),
	}
}

// Hub fans availability changes out to watchers. With Redis, changes published by
// any instance reach the watchers connected to this one.
type Hub struct {
	checker  *Checker
	redis    *redis.Client
	pubsub   *redis.PubSub
	watchers map[uuid.UUID]map[*Watcher]bool
	mu       sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates hub. redisClient may be nil for single-instance deployments.
func NewHub(checker *Checker, redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		checker:  checker,
		redis:    redisClient,
		watchers: make(map[uuid.UUID]map[*Watcher]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, changesChannel)
	}
	return h
}

// Run listens for change events until Stop (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub == nil {
		<-h.ctx.Done()
		return
	}

	ch := h.pubsub.Channel()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			roomID, err := uuid.Parse(msg.Payload)
			if err != nil {
				continue
			}
			go h.Refresh(h.ctx, roomID)
		}
	}
}

// Stop closes the subscription and every watcher.
func (h *Hub) Stop() {
	h.cancel()
	if h.pubsub != nil {
		_ = h.pubsub.Close()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, set := range h.watchers {
		for w := range set {
			close(w.Send)
			watchersGauge.Add(-1)
		}
		delete(h.watchers, roomID)
	}
}

func (h *Hub) Register(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[w.RoomID] == nil {
		h.watchers[w.RoomID] = make(map[*Watcher]bool)
	}
	h.watchers[w.RoomID][w] = true
	watchersGauge.Add(1)
	log.Debug().Str("room_id", w.RoomID.String()).Msg("availability watcher connected")
}

func (h *Hub) Unregister(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.watchers[w.RoomID]
	if !ok {
		return
	}
	if _, exists := set[w]; exists {
		delete(set, w)
		close(w.Send)
		watchersGauge.Add(-1)
	}
	if len(set) == 0 {
		delete(h.watchers, w.RoomID)
	}
}

// Publish announces that roomID changed. Without Redis, or when publishing
// fails, local watchers are refreshed directly.
func (h *Hub) Publish(ctx context.Context, roomID uuid.UUID) {
	if h.redis != nil {
		err := h.redis.Publish(ctx, changesChannel, roomID.String()).Err()
		if err == nil {
			return
		}
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("availability publish failed")
	}
	go h.Refresh(h.ctx, roomID)
}

func (h *Hub) roomWatchers(roomID uuid.UUID) []*Watcher {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set := h.watchers[roomID]
	out := make([]*Watcher, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	return out
}

// Refresh re-reads availability once for the room and re-checks every local watcher.
func (h *Hub) Refresh(ctx context.Context, roomID uuid.UUID) {
	watchers := h.roomWatchers(roomID)
	if len(watchers) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	window := coveringWindow(watchers)
	days, _, err := h.checker.UnavailableDays(ctx, roomID, window)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("availability refresh failed")
		return
	}

	for _, w := range watchers {
		h.deliver(w, days)
	}
}

// RefreshWatcher re-checks a single watcher, used right after it connects or
// changes its selection.
func (h *Hub) RefreshWatcher(ctx context.Context, w *Watcher) {
	days, _, err := h.checker.UnavailableDays(ctx, w.RoomID, coveringWindow([]*Watcher{w}))
	if err != nil {
		h.sendEvent(w, &WSEvent{Type: EventError, RoomID: w.RoomID, Message: "availability unavailable"})
		return
	}
	h.deliver(w, days)
}

func (h *Hub) deliver(w *Watcher, days calendar.DaySet) {
	update := w.Selection.Apply(days)
	event := &WSEvent{
		Type:            EventAvailability,
		RoomID:          w.RoomID,
		UnavailableDays: days.Within(w.Window).Sorted(),
		Selection:       &update,
	}
	if update.Cleared {
		log.Debug().Str("room_id", w.RoomID.String()).Msg("watcher selection invalidated by conflict")
	}
	h.sendEvent(w, event)
}

func (h *Hub) sendEvent(w *Watcher, event *WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.watchers[w.RoomID][w] {
		return
	}
	select {
	case w.Send <- data:
		watchEventsSentTotal.Add(1)
	default:
		watchEventsDropped.Add(1)
		log.Warn().Str("room_id", w.RoomID.String()).Msg("availability watcher buffer full")
	}
}

// coveringWindow spans every watcher's view window and selection.
func coveringWindow(watchers []*Watcher) calendar.DateRange {
	window := watchers[0].Window
	for _, w := range watchers {
		ranges := []calendar.DateRange{w.Window}
		if sel, ok := w.Selection.Current(); ok {
			ranges = append(ranges, sel)
		}
		for _, r := range ranges {
			if r.CheckIn.Before(window.CheckIn) {
				window.CheckIn = r.CheckIn
			}
			if r.CheckOut.After(window.CheckOut) {
				window.CheckOut = r.CheckOut
			}
		}
	}
	return window
}
