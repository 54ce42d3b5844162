// Command seatmap-client is a terminal viewer for the live seat map.
// It connects to the coordinator's websocket endpoint, asserts a set
// of seat selections and prints every state change it observes.  It
// exists to exercise the full select/deselect/expiry flow against a
// running server without a browser.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/iliyamo/cinema-seat-coordinator/internal/client"
	"github.com/iliyamo/cinema-seat-coordinator/internal/model"
)

func main() {
	base := flag.String("url", "ws://localhost:8080", "server base URL (ws:// or wss://)")
	showing := flag.Uint64("showing", 0, "showing id to view")
	seats := flag.String("seats", "", "comma-separated seat ids to select")
	flag.Parse()

	if *showing == 0 {
		log.Fatal("missing -showing")
	}
	wanted, err := parseSeats(*seats)
	if err != nil {
		log.Fatalf("bad -seats: %v", err)
	}

	endpoint := fmt.Sprintf("%s/v1/showings/%d/seatmap/ws", strings.TrimRight(*base, "/"), *showing)
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", endpoint, err)
	}
	defer conn.Close()

	rec := client.New()
	rec.EnterShowing(*showing)
	for _, id := range wanted {
		rec.Select(id) // queued until the server's hello confirms the transport
	}

	frames := make(chan []byte, 16)
	go func() {
		defer close(frames)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frames <- data
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	for {
		select {
		case data, ok := <-frames:
			if !ok {
				log.Printf("connection closed")
				rec.SetConnected(false)
				return
			}
			if err := handleFrame(conn, rec, data); err != nil {
				log.Printf("frame: %v", err)
			}
		case <-interrupt:
			// Release everything before leaving so other viewers see
			// the seats free immediately instead of waiting for expiry.
			send(conn, rec.LeaveShowing())
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// handleFrame decodes one server frame, feeds it to the reconciler and
// transmits whatever intents become sendable as a result.
func handleFrame(conn *websocket.Conn, rec *client.Reconciler, data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch probe.Type {
	case model.TypeHello:
		var msg model.HelloMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		rec.ApplyHello(msg)
		log.Printf("session %s viewing showing %d", msg.SessionID, msg.ShowingID)
		send(conn, rec.SetConnected(true))
	case model.TypeResult:
		var msg model.ResultMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		rec.ApplyResult(msg)
		if !msg.Accepted {
			log.Printf("%s seat %d rejected: %s", msg.Action, msg.SeatID, msg.Reason)
		}
		printHeld(rec)
	case model.TypeSeat:
		var ev model.SeatEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		rec.ApplySeatEvent(ev)
		printHeld(rec)
	case model.TypeSnapshot:
		var ev model.SnapshotEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		rec.ApplySnapshot(ev)
		printHeld(rec)
	default:
		log.Printf("unknown frame type %q", probe.Type)
	}
	return nil
}

// send transmits a batch of intents over the socket.
func send(conn *websocket.Conn, intents []client.Intent) {
	for _, in := range intents {
		msg := model.IntentMessage{Action: in.Action, ShowingID: in.ShowingID, SeatID: in.SeatID}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("write: %v", err)
			return
		}
	}
}

func printHeld(rec *client.Reconciler) {
	held := rec.HeldSeats()
	log.Printf("holding %d seat(s): %v", len(held), held)
}

// parseSeats splits a comma-separated list of seat ids.
func parseSeats(s string) ([]uint64, error) {
	if s == "" {
		return nil, nil
	}
	var out []uint64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("seat %q: %w", part, err)
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
