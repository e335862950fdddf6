package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/utafrali/gomarketplace/internal/cart"
	"github.com/utafrali/gomarketplace/internal/domain"
	"github.com/utafrali/gomarketplace/pkg/logger"
)

const streamKeepAlive = 15 * time.Second

// Stream handles GET /api/v1/cart/stream. It sends the current snapshot and
// then one "snapshot" server-sent event per change until the client leaves
// or the manager closes.
func (h *CartHandler) Stream(w http.ResponseWriter, r *http.Request) {
	m := cart.FromContext(r.Context())
	l := logger.FromContext(r.Context())
	rc := http.NewResponseController(w)

	ch, cancel := m.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		l.WarnContext(r.Context(), "streaming unsupported", slog.String("error", err.Error()))
		return
	}

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case c, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSnapshotEvent(w, c); err != nil {
				l.DebugContext(r.Context(), "snapshot stream closed", slog.String("error", err.Error()))
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeSnapshotEvent(w http.ResponseWriter, c domain.Cart) error {
	data, err := json.Marshal(toCartResponse(c))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: snapshot\nid: %s\ndata: %s\n\n", strconv.FormatUint(c.Version(), 10), data)
	return err
}
