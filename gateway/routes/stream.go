package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"nhooyr.io/websocket"

	"relpchain/storage/eventlog"
)

const streamWriteTimeout = 10 * time.Second

// eventStream upgrades to a websocket and sends journal records after the
// "after" cursor, then every record committed while the connection is open.
// A subscriber that falls behind is closed with StatusTryAgainLater and
// resumes from the last sequence it received.
func (h *handlers) eventStream(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: after: %v", errBadRequest, err))
			return
		}
		after = v
	}

	updates, cancel := h.ledger.Subscribe(r.Context())
	defer cancel()
	first, err := h.ledger.Events(r.Context(), eventlog.Filter{AfterSeq: after, Limit: eventlog.DefaultLimit})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	ctx := conn.CloseRead(r.Context())
	if err := h.streamEvents(ctx, conn, updates, first, after); err != nil {
		if websocket.CloseStatus(err) == -1 {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (h *handlers) streamEvents(ctx context.Context, conn *websocket.Conn, updates <-chan eventlog.Record, batch []eventlog.Record, last uint64) error {
	for {
		for _, rec := range batch {
			if err := writeRecord(ctx, conn, rec); err != nil {
				return err
			}
			last = rec.Seq
		}
		if len(batch) < eventlog.DefaultLimit {
			break
		}
		var err error
		batch, err = h.ledger.Events(ctx, eventlog.Filter{AfterSeq: last, Limit: eventlog.DefaultLimit})
		if err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-updates:
			if !ok {
				return conn.Close(websocket.StatusTryAgainLater, strconv.FormatUint(last, 10))
			}
			if rec.Seq <= last {
				continue
			}
			if err := writeRecord(ctx, conn, rec); err != nil {
				return err
			}
			last = rec.Seq
		}
	}
}

func writeRecord(ctx context.Context, conn *websocket.Conn, rec eventlog.Record) error {
	view, err := newEventView(rec)
	if err != nil {
		return err
	}
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
