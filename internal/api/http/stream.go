package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"vitals-monitor/internal/domain"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleChartStream upgrades to a WebSocket and sends the current frame of
// every charted channel followed by each new frame. ?channel= narrows the
// stream to one chart.
func (h *handler) handleChartStream(w http.ResponseWriter, r *http.Request) {
	if h.charts == nil {
		h.writeError(w, http.StatusServiceUnavailable, "chart stream not available")
		return
	}

	only := r.URL.Query().Get(paramChannel)
	if only != "" {
		if _, err := h.service.State(only); err != nil {
			h.respondServiceError(w, err)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log(r, "chart stream: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	frames, unsubscribe := h.charts.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for _, state := range h.service.Channels() {
		if only != "" && state.Channel != only {
			continue
		}
		frame, err := h.service.Chart(state.Channel)
		if err != nil || frame.Seq == 0 {
			continue
		}
		if err := h.writeFrame(conn, frame); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case frame, ok := <-frames:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			if only != "" && frame.Chart != only {
				continue
			}
			if err := h.writeFrame(conn, frame); err != nil {
				h.log(r, "chart stream: write failed: %v", err)
				return
			}
		}
	}
}

func (h *handler) writeFrame(conn *websocket.Conn, frame domain.ChartFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(h.toFrameResponse(frame))
}

func (h *handler) log(r *http.Request, format string, v ...any) {
	if h.logger != nil {
		h.logger.Printf(r.Context(), format, v...)
	}
}
