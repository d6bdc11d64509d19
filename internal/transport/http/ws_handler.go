package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/textchat-relay/internal/core"
	"github.com/vovakirdan/textchat-relay/internal/utils"
)

const (
	headerUsername = "username"
	headerPassword = "password"

	// Close reasons are limited to 123 bytes by the protocol.
	maxCloseReason = 123
)

// WSOptions bounds what a single connection may send.
type WSOptions struct {
	MaxMessageBytes      int64
	MaxMessagesPerMinute int
}

// WSHandler upgrades HTTP connections and drives a core.Session for each.
type WSHandler struct {
	manager *core.Manager
	opts    WSOptions
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(manager *core.Manager, opts WSOptions, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{manager: manager, opts: opts, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	creds := core.Credentials{
		Username: r.Header.Get(headerUsername),
		Password: r.Header.Get(headerPassword),
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	client := core.NewClient(utils.NewID(), "")
	session := h.manager.NewSession(client)
	log := h.log.With().Str("conn_id", client.ID).Logger()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	limiter := newRateLimiter(h.opts.MaxMessagesPerMinute)
	limiter.startReset(ctx.Done())

	readErr := make(chan error, 1)
	writeErr := make(chan error, 1)
	go func() {
		err := h.readLoop(ctx, conn, session, limiter, &log)
		// A dead peer aborts a login that is still in flight.
		cancel()
		readErr <- err
	}()
	go func() {
		writeErr <- h.writeLoop(ctx, conn, client, &log)
	}()

	if f, failed := session.Open(ctx, creds).Failure(); failed {
		// The session queued the failure and closed its stream; wait for the
		// frame to be flushed before closing the socket.
		select {
		case <-writeErr:
		case <-readErr:
		}
		log.Info().Str("kind", string(f.Kind)).Msg("connection rejected")
		conn.Close(websocket.StatusPolicyViolation, closeReason(f.Message))
		cancel()
		session.Close()
		return
	}

	select {
	case err = <-readErr:
	case err = <-writeErr:
		if err == nil {
			// Event stream closed by the hub.
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
	cancel()
	session.Close()

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
			reason = closeReason(err.Error())
			log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session, limiter *rateLimiter, log *zerolog.Logger) error {
	messageEvent := h.manager.Names().Message
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("read ws inbound")
			return err
		}

		if session.State() != core.StateJoined {
			log.Debug().Msg("dropping frame before join")
			continue
		}
		if !limiter.allow() {
			session.Notify(&core.CoreError{Code: core.ErrCodeRateLimited, Message: "rate limit exceeded"})
			continue
		}

		text, protoErr := inboundText(data, messageEvent)
		if protoErr != nil {
			session.Notify(protoErr)
			continue
		}
		session.Relay(text)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, log *zerolog.Logger) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				log.Error().Err(err).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func closeReason(msg string) string {
	if len(msg) <= maxCloseReason {
		return msg
	}
	cut := maxCloseReason
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
