package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
	"github.com/spacehub/spacehub-api/internal/pkg/errorhandler"
	"github.com/spacehub/spacehub-api/internal/pkg/response"
	"github.com/spacehub/spacehub-api/internal/pkg/validator"
)

const (
	defaultWindowDays = 90

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// CheckRequest is a candidate range to test against current availability
type CheckRequest struct {
	CheckIn  string `json:"check_in" validate:"required,day"`
	CheckOut string `json:"check_out" validate:"required,day"`
}

// Handler serves availability queries for a room mounted under /rooms/{id}/availability
type Handler struct {
	checker  *Checker
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates availability handler
func NewHandler(checker *Checker, hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		checker: checker,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(allowedOrigins) == 0 || origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
				return false
			},
		},
	}
}

// Routes returns availability router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	r.Post("/check", h.Check)
	r.Get("/watch", h.Watch)
	return r
}

// Get handles GET /rooms/{id}/availability?start=&end=
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	window, details := parseWindow(r)
	if details != nil {
		response.ValidationError(w, details)
		return
	}

	snap, err := h.checker.QuerySnapshot(r.Context(), roomID, window)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, snap)
}

// Check handles POST /rooms/{id}/availability/check
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var req CheckRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	candidate, details := parseRange(req.CheckIn, req.CheckOut)
	if details != nil {
		response.ValidationError(w, details)
		return
	}

	res, err := h.checker.RefreshAndCheck(r.Context(), roomID, candidate)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, res)
}

// Watch handles WS /rooms/{id}/availability/watch?start=&end=&check_in=&check_out=
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	window, details := parseWindow(r)
	if details != nil {
		response.ValidationError(w, details)
		return
	}

	var selection *calendar.DateRange
	q := r.URL.Query()
	if q.Get("check_in") != "" || q.Get("check_out") != "" {
		candidate, details := parseRange(q.Get("check_in"), q.Get("check_out"))
		if details != nil {
			response.ValidationError(w, details)
			return
		}
		selection = &candidate
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	watcher := NewWatcher(roomID, window, conn)
	if selection != nil {
		watcher.Selection.Set(*selection)
	}
	h.hub.Register(watcher)

	go h.wsWriter(watcher)
	go h.wsReader(watcher)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h.hub.RefreshWatcher(ctx, watcher)
}

// watchCommand is sent by the client to change its selection.
type watchCommand struct {
	Type     string `json:"type"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

func (h *Handler) wsReader(watcher *Watcher) {
	defer func() {
		h.hub.Unregister(watcher)
		watcher.Conn.Close()
	}()

	watcher.Conn.SetReadLimit(maxMessageSize)
	watcher.Conn.SetReadDeadline(time.Now().Add(pongWait))
	watcher.Conn.SetPongHandler(func(string) error {
		watcher.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := watcher.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("room_id", watcher.RoomID.String()).Msg("WebSocket read error")
			}
			return
		}

		var cmd watchCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}

		switch cmd.Type {
		case "select":
			candidate, details := parseRange(cmd.CheckIn, cmd.CheckOut)
			if details != nil {
				h.hub.sendEvent(watcher, &WSEvent{Type: EventError, RoomID: watcher.RoomID, Message: "invalid selection"})
				continue
			}
			watcher.Selection.Set(candidate)
		case "clear":
			watcher.Selection.Clear()
		default:
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		h.hub.RefreshWatcher(ctx, watcher)
		cancel()
	}
}

func (h *Handler) wsWriter(watcher *Watcher) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		watcher.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-watcher.Send:
			watcher.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				watcher.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := watcher.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			watcher.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := watcher.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		response.NotFound(w, "Room not found")
	case errors.Is(err, calendar.ErrReversedRange):
		response.ValidationError(w, map[string]string{"check_out": err.Error()})
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, response.CodeInternal, "Failed to load availability", err)
	}
}

// parseWindow reads start/end query params, defaulting to the next 90 days.
func parseWindow(r *http.Request) (calendar.DateRange, map[string]string) {
	q := r.URL.Query()
	start := calendar.Today()
	if raw := q.Get("start"); raw != "" {
		d, err := calendar.ParseDay(raw)
		if err != nil {
			return calendar.DateRange{}, map[string]string{"start": "Dates must be YYYY-MM-DD"}
		}
		start = d
	}

	end := start.AddDays(defaultWindowDays - 1)
	if raw := q.Get("end"); raw != "" {
		d, err := calendar.ParseDay(raw)
		if err != nil {
			return calendar.DateRange{}, map[string]string{"end": "Dates must be YYYY-MM-DD"}
		}
		end = d
	}

	window, err := calendar.NewDateRange(start, end)
	if err != nil {
		return calendar.DateRange{}, map[string]string{"end": "End date must not be before start date"}
	}
	if err := window.CheckLength(); err != nil {
		return calendar.DateRange{}, map[string]string{"end": "Window must not exceed 366 days"}
	}
	return window, nil
}

func parseRange(checkInRaw, checkOutRaw string) (calendar.DateRange, map[string]string) {
	checkIn, err := calendar.ParseDay(checkInRaw)
	if err != nil {
		return calendar.DateRange{}, map[string]string{"check_in": "Dates must be YYYY-MM-DD"}
	}
	checkOut, err := calendar.ParseDay(checkOutRaw)
	if err != nil {
		return calendar.DateRange{}, map[string]string{"check_out": "Dates must be YYYY-MM-DD"}
	}
	stay, err := calendar.NewDateRange(checkIn, checkOut)
	if err != nil {
		return calendar.DateRange{}, map[string]string{"check_out": err.Error()}
	}
	if err := stay.CheckLength(); err != nil {
		return calendar.DateRange{}, map[string]string{"check_out": "Range must not exceed 366 days"}
	}
	return stay, nil
}
