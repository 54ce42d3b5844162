package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-coordinator/internal/hub"
	"github.com/iliyamo/cinema-seat-coordinator/internal/lock"
	"github.com/iliyamo/cinema-seat-coordinator/internal/model"
	"github.com/iliyamo/cinema-seat-coordinator/internal/repository"
)

// SeatmapHandler serves the live seat map socket.  One connection is
// one session viewing one showing: the session is registered at
// upgrade time, subscribed to the showing's topic, fed an initial
// snapshot and then exchanges intents and broadcasts until the
// connection drops, at which point every lock the session held is
// released through the hub's disconnect handler.
type SeatmapHandler struct {
	Hub         *hub.Hub
	Coordinator *lock.Coordinator
	ShowingRepo *repository.ShowingRepo
	BookingRepo *repository.BookingRepo

	upgrader  websocket.Upgrader
	readLimit int64
}

// NewSeatmapHandler constructs a SeatmapHandler.  readLimit bounds
// the size of inbound frames; intents are tiny, so anything larger is
// a misbehaving client.
func NewSeatmapHandler(h *hub.Hub, coord *lock.Coordinator, showings *repository.ShowingRepo, bookings *repository.BookingRepo, readLimit int64) *SeatmapHandler {
	if h == nil || coord == nil || showings == nil || bookings == nil {
		panic("nil dependency passed to NewSeatmapHandler")
	}
	return &SeatmapHandler{
		Hub:         h,
		Coordinator: coord,
		ShowingRepo: showings,
		BookingRepo: bookings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Same-origin policy is enforced upstream; the seat map is
			// public read state, the session id is the only secret.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		readLimit: readLimit,
	}
}

// ServeWS handles GET /v1/showings/:id/seatmap/ws.  The showing must
// exist before the upgrade; afterwards all errors travel over the
// socket as result frames rather than HTTP statuses.
func (h *SeatmapHandler) ServeWS(c echo.Context) error {
	showingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showing id"})
	}
	ctx := c.Request().Context()
	if _, err := h.ShowingRepo.GetByID(ctx, showingID); err != nil {
		if errors.Is(err, repository.ErrShowingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Printf("seatmap: websocket upgrade failed: %v", err)
		return nil
	}
	defer conn.Close()
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	sess := h.Hub.Register()
	defer h.Hub.Unregister(sess)
	h.Hub.Subscribe(sess, showingID)

	h.Hub.SendTo(sess, model.HelloMessage{Type: model.TypeHello, SessionID: sess.ID, ShowingID: showingID})
	h.Hub.SendTo(sess, model.SnapshotEvent{
		Type:          model.TypeSnapshot,
		ShowingID:     showingID,
		LockedSeatIDs: h.Coordinator.SnapshotFor(showingID),
	})

	go writePump(sess, conn)
	h.readLoop(ctx, sess, conn, showingID)
	return nil
}

// readLoop decodes intents until the connection dies.  Malformed
// frames are rejected per-frame; only transport errors end the loop.
func (h *SeatmapHandler) readLoop(ctx context.Context, sess *hub.Session, conn *websocket.Conn, showingID uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("seatmap: session %s read error: %v", sess.ID, err)
			}
			return
		}
		var intent model.IntentMessage
		if err := json.Unmarshal(data, &intent); err != nil {
			h.Hub.SendTo(sess, model.ResultMessage{Type: model.TypeResult, Accepted: false, Reason: "BAD_INTENT"})
			continue
		}
		if intent.ShowingID != 0 && intent.ShowingID != showingID {
			h.Hub.SendTo(sess, model.ResultMessage{Type: model.TypeResult, Action: intent.Action, SeatID: intent.SeatID, Accepted: false, Reason: "SHOWING_MISMATCH"})
			continue
		}
		h.Hub.SendTo(sess, h.applyIntent(ctx, sess.ID, showingID, intent))
	}
}

// applyIntent runs one intent through the coordinator and folds the
// outcome into a result frame.  Rejections are part of the protocol,
// not errors: the connection always survives them.
func (h *SeatmapHandler) applyIntent(ctx context.Context, sessionID string, showingID uint64, intent model.IntentMessage) model.ResultMessage {
	res := model.ResultMessage{Type: model.TypeResult, Action: intent.Action, SeatID: intent.SeatID}
	if intent.SeatID == 0 {
		res.Reason = "BAD_INTENT"
		return res
	}
	var err error
	switch intent.Action {
	case model.ActionSelect:
		err = h.Coordinator.Select(ctx, showingID, intent.SeatID, sessionID)
	case model.ActionDeselect:
		err = h.Coordinator.Deselect(ctx, showingID, intent.SeatID, sessionID)
	default:
		res.Reason = "BAD_INTENT"
		return res
	}
	switch {
	case err == nil:
		res.Accepted = true
	case errors.Is(err, lock.ErrSeatHeld):
		res.Reason = model.ReasonAlreadyHeld
	case errors.Is(err, lock.ErrSeatBooked):
		res.Reason = model.ReasonAlreadyBooked
	case errors.Is(err, lock.ErrNotHolder):
		res.Reason = model.ReasonNotHolder
	default:
		log.Printf("seatmap: intent %s seat %d session %s failed: %v", intent.Action, intent.SeatID, sessionID, err)
		res.Reason = "INTERNAL"
	}
	return res
}

// writePump drains the session outbox onto the wire.  It exits when
// the hub closes the outbox or the connection breaks; closing the
// connection also unblocks the read loop.
func writePump(sess *hub.Session, conn *websocket.Conn) {
	defer conn.Close()
	for payload := range sess.Outbox() {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
