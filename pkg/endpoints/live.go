package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/dashboard"
)

const (
	writeTimeout = 3 * time.Second
	// clients are expected to send pings or hover messages within this time
	readTimeout = 60 * time.Second
)

// clientMessage is sent by live clients. Hover changes arrive at a high
// rate so they use the websocket instead of the http actions.
type clientMessage struct {
	Type     string  `json:"type"` // hover, hoverDistance, clearHover, ping
	Index    int     `json:"index"`
	Distance float64 `json:"distance"`
}

// live pushes dashboard updates to the client. The current snapshot is
// sent first.
func (m *Manager) live(w http.ResponseWriter, r *http.Request) {
	d, ok := m.lookup(w, r)
	if !ok {
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: m.origins,
	})
	if err != nil {
		m.log.Warn("websocket accept", log.ErrorField(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	updates := d.Subscribe()
	defer d.Unsubscribe(updates)

	snap := d.Snapshot()
	if err := m.write(ctx, conn, dashboard.Update{Type: dashboard.UpdateSnapshot, Snapshot: &snap}); err != nil {
		return
	}
	go m.readLoop(ctx, cancel, conn, d)

	for {
		select {
		case <-ctx.Done():
			return
		case u, more := <-updates:
			if !more {
				conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			if err := m.write(ctx, conn, u); err != nil {
				return
			}
		}
	}
}

func (m *Manager) write(ctx context.Context, conn *websocket.Conn, u dashboard.Update) error {
	wCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	err := wsjson.Write(wCtx, conn, u)
	if err != nil {
		m.log.Debug("websocket write", log.ErrorField(err))
	}
	return err
}

func (m *Manager) readLoop(
	ctx context.Context,
	cancel context.CancelFunc,
	conn *websocket.Conn,
	d *dashboard.Dashboard,
) {
	defer cancel()
	for {
		var msg clientMessage
		rCtx, rCancel := context.WithTimeout(ctx, readTimeout)
		err := wsjson.Read(rCtx, conn, &msg)
		rCancel()
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				m.log.Debug("websocket read", log.ErrorField(err))
			}
			return
		}
		switch msg.Type {
		case "hover":
			d.HoverAt(msg.Index)
		case "hoverDistance":
			d.HoverDistance(msg.Distance)
		case "clearHover":
			d.ClearHover()
		case "ping":
		default:
			m.log.Debug("unknown client message", log.String("type", msg.Type))
		}
	}
}
