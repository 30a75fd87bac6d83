package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"slices"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/voicespaces-server/internal/config"
	"github.com/vovakirdan/voicespaces-server/internal/core"
	"github.com/vovakirdan/voicespaces-server/internal/proto"
	"github.com/vovakirdan/voicespaces-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub       *core.Hub
	log       *zerolog.Logger
	accept    *websocket.AcceptOptions
	buffer    int
	readLimit int64
	rateLimit int
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:       hub,
		log:       logger,
		accept:    acceptOptions(cfg.CORSOrigins),
		buffer:    cfg.ClientBuffer,
		readLimit: cfg.MaxMessageBytes,
		rateLimit: cfg.CommandsPerMinute,
	}
}

// acceptOptions turns CORS origins into websocket origin patterns.
func acceptOptions(origins []string) *websocket.AcceptOptions {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		patterns = append(patterns, o)
	}
	return &websocket.AcceptOptions{OriginPatterns: patterns}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, h.accept)
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	client := core.NewClient(utils.NewID(), h.buffer)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)

	h.log.Info().Str("conn_id", client.ID).Str("remote", r.RemoteAddr).Msg("ws connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	h.log.Info().Str("conn_id", client.ID).Msg("ws disconnected")
	_ = conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.rateLimit)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			if writeErr := h.replyError(ctx, conn, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed message"}); writeErr != nil {
				return writeErr
			}
			continue
		}

		if !limiter.allow() {
			h.log.Debug().Str("conn_id", client.ID).Str("type", inbound.Type).Msg("command rate limited")
			if writeErr := h.replyError(ctx, conn, &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"}); writeErr != nil {
				return writeErr
			}
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			h.log.Debug().Str("conn_id", client.ID).Str("type", inbound.Type).Str("code", protoErr.Code).Msg("rejected inbound")
			if writeErr := h.replyError(ctx, conn, protoErr); writeErr != nil {
				return writeErr
			}
			continue
		}

		if !client.Submit(ctx, cmd) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if event == nil {
				continue
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) replyError(ctx context.Context, conn *websocket.Conn, perr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: perr})
}
