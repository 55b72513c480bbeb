package httpserver

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/balkan_kitchen/internal/feed"
	"github.com/Skotchmaster/balkan_kitchen/internal/logging"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

const (
	feedWSWriteWait = 10 * time.Second
	feedWSPongWait  = 60 * time.Second
	feedWSPingEvery = (feedWSPongWait * 9) / 10
)

var feedWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// FeedMessage is one frame sent to admin clients. The first frame is a
// snapshot of the board; every later frame carries one change.
type FeedMessage struct {
	Type   string         `json:"type"`
	Orders []models.Order `json:"orders,omitempty"`
	Order  *models.Order  `json:"order,omitempty"`
	At     time.Time      `json:"at"`
}

type OrderFeedHTTP struct {
	Hub   *feed.Hub
	Board *feed.Board
}

// Stream upgrades to a websocket and pushes order changes until the client
// goes away.
func (h *OrderFeedHTTP) Stream(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "orders.ws")

	conn, err := feedWSUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		l.Warn("ws_upgrade_failed", "error", err)
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := h.Hub.Subscribe(ctx)

	if err := conn.SetReadDeadline(time.Now().Add(feedWSPongWait)); err != nil {
		return nil
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedWSPongWait))
	})

	// reader: only control frames matter; any error ends the stream
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	l.Info("ws_connected", "subscribers", h.Hub.Subscribers())
	defer l.Info("ws_disconnected")

	write := func(msg FeedMessage) error {
		if err := conn.SetWriteDeadline(time.Now().Add(feedWSWriteWait)); err != nil {
			return err
		}
		return conn.WriteJSON(msg)
	}

	if err := write(FeedMessage{Type: "snapshot", Orders: h.Board.Orders(), At: time.Now().UTC()}); err != nil {
		return nil
	}

	ticker := time.NewTicker(feedWSPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(feedWSWriteWait))
				return nil
			}
			o := ev.Order
			if err := write(FeedMessage{Type: string(ev.Type), Order: &o, At: ev.At}); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(feedWSWriteWait)); err != nil {
				return nil
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
