// Package ws is the websocket transport adapter: it upgrades
// connections, runs the read/write pumps, and translates inbound JSON
// envelopes into hub calls.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/convoyapp/convoy/internal/app"
	"github.com/convoyapp/convoy/internal/domain"
)

type Controller struct {
	Hub        *app.Hub
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewController(hub *app.Hub, readLimit int64, pingPeriod time.Duration) *Controller {
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &Controller{Hub: hub, ReadLimit: readLimit, PingPeriod: pingPeriod}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	sid := domain.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "ws").Str("sid", string(sid)).Msg("new WS connection")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		conn.SetReadLimit(ctl.ReadLimit)
	}

	wc := newWSConn(conn)
	ctl.Hub.Connect(sid, wc)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, wc)
	go ctl.readPump(ctx, cancel, sid, wc)
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Debug().Err(err).Str("module", "ws").Msg("ping failed")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, sid domain.SessionID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "ws").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Hub.Disconnect(ctx, sid)
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.dispatch(ctx, sid, data)
		}
	}
}

func (ctl *Controller) dispatch(ctx context.Context, sid domain.SessionID, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad json envelope")
		return
	}

	switch env.Type {
	case app.EvJoinRoom:
		var p app.JoinPayload
		if unmarshal(data, &p) {
			ctl.Hub.Join(ctx, sid, p)
		}
	case app.EvSendMessage:
		var p app.MessagePayload
		if unmarshal(data, &p) {
			ctl.Hub.Message(ctx, sid, p)
		}
	case app.EvPrivateMessage:
		var p app.PrivatePayload
		if unmarshal(data, &p) {
			ctl.Hub.Private(sid, p)
		}
	case app.EvTyping:
		var p app.TypingPayload
		if unmarshal(data, &p) {
			ctl.Hub.Typing(sid, p)
		}
	case app.EvCallInitiate:
		var p app.CallInitiatePayload
		if unmarshal(data, &p) {
			ctl.Hub.CallInitiate(sid, p)
		}
	case app.EvMediaUpdate:
		var p app.MediaUpdatePayload
		if unmarshal(data, &p) {
			ctl.Hub.MediaUpdate(sid, p)
		}
	case app.EvCallAnswer:
		var p app.CallAnswerPayload
		if unmarshal(data, &p) {
			ctl.Hub.CallAnswer(sid, p)
		}
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
	}
}

func unmarshal(data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad event payload")
		return false
	}
	return true
}
