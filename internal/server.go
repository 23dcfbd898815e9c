package internal

import (
	"encoding/json"
	"io"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	"github.com/zefir/reakcja-go-backend/internal/db"
	"github.com/zefir/reakcja-go-backend/logger"
)

const pingInterval = 5 * time.Second

// Server accepts websocket connections and routes their commands into the
// session registry. One goroutine per connection reads frames; all
// session mutation happens under the session's own lock, so commands for
// the same game code never interleave.
type Server struct {
	registry *Registry
	clients  *ClientRegistry
}

func NewServer(store *db.Store) *Server {
	clients := NewClientRegistry()
	return &Server{
		registry: NewRegistry(clients, store),
		clients:  clients,
	}
}

func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	logger.Log.Info().Str("addr", addr).Msg("websocket server listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.Log.Warn().Err(err).Msg("accept error")
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	_, err := ws.Upgrade(conn)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("websocket upgrade error")
		conn.Close()
		return
	}
	defer conn.Close()

	client := NewClient(uuid.NewString(), conn)
	s.clients.Add(client)
	defer s.disconnect(client)

	logger.Log.Info().Str("client", client.ID).Msg("client connected")

	if err := client.Send(MsgConnectionEstablished, connectionEstablishedData{ClientID: client.ID}); err != nil {
		logger.Log.Warn().Err(err).Str("client", client.ID).Msg("greeting failed")
		return
	}

	done := make(chan struct{})
	defer close(done)

	// Ping sender goroutine
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := client.Send(MsgPing, nil); err != nil {
					logger.Log.Debug().Err(err).Str("client", client.ID).Msg("ping failed")
					return
				}
			case <-done:
				return
			}
		}
	}()

	s.readFrames(conn, client)
}

// disconnect runs the implicit-leave path: whatever session the connection
// was bound to is left as an active-game departure, then the binding goes
// away.
func (s *Server) disconnect(client *Client) {
	if client.GameCode != "" {
		s.registry.Leave(client, client.GameCode, true)
	}
	s.clients.Remove(client.ID)
	logger.Log.Info().Str("client", client.ID).Msg("client disconnected")
}

func (s *Server) readFrames(conn net.Conn, client *Client) {
	br := wsutil.NewReader(conn, ws.StateServerSide)

	for {
		hdr, err := br.NextFrame()
		if err != nil {
			if err != io.EOF {
				logger.Log.Debug().Err(err).Str("client", client.ID).Msg("frame read error")
			}
			return
		}

		if hdr.OpCode == ws.OpClose {
			return
		}

		// The protocol is JSON text frames; discard anything else.
		if hdr.OpCode != ws.OpText {
			if _, err := io.CopyN(io.Discard, br, int64(hdr.Length)); err != nil {
				logger.Log.Debug().Err(err).Str("client", client.ID).Msg("frame discard error")
				return
			}
			continue
		}

		size := int(hdr.Length)
		bufPtr := getBufferForSize(size)
		buf := *bufPtr
		if size > cap(buf) {
			logger.Log.Warn().Int("bytes", size).Str("client", client.ID).Msg("frame too large")
			putBuffer(bufPtr)
			return
		}

		buf = buf[:size]
		if _, err := io.ReadFull(br, buf); err != nil {
			logger.Log.Debug().Err(err).Str("client", client.ID).Msg("payload read error")
			putBuffer(bufPtr)
			return
		}

		var env Envelope
		if err := json.Unmarshal(buf, &env); err != nil {
			logger.Log.Warn().Err(err).Str("client", client.ID).Msg("malformed envelope")
			if sendErr := client.Send(MsgError, errorData{Message: "Invalid message format"}); sendErr != nil {
				logger.Log.Debug().Err(sendErr).Str("client", client.ID).Msg("send failed")
			}
			putBuffer(bufPtr)
			continue
		}

		s.handleMessage(client, env)
		putBuffer(bufPtr)
	}
}
