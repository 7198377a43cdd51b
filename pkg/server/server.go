// Package server exposes sender metadata over HTTP and runs the WebSocket
// channels whose sessions carry it.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/gokaycavdar/go-senderinfo/pkg/engine"
	"github.com/gokaycavdar/go-senderinfo/pkg/geoip"
	"github.com/gokaycavdar/go-senderinfo/pkg/logging"
	"github.com/gokaycavdar/go-senderinfo/pkg/models"
	"github.com/gokaycavdar/go-senderinfo/pkg/storage"
)

const (
	maxMessageSize      = 64 << 10
	defaultWriteTimeout = 10 * time.Second
)

// Server serves the HTTP API and the WebSocket channels.
type Server struct {
	engine     *engine.Engine
	store      storage.SessionStore
	trustProxy   bool
	writeTimeout time.Duration
	gatherer     prometheus.Gatherer
	hub          *hub
	upgrader     websocket.Upgrader
	log          *logrus.Entry
	now          func() time.Time
}

// Options holds the optional settings of a Server.
type Options struct {
	// TrustProxy takes the remote address from forwarding headers.
	TrustProxy bool
	// Gatherer serves /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
	// WriteTimeout bounds every WebSocket write. A client that does not
	// read within it is disconnected. Defaults to 10s.
	WriteTimeout time.Duration
}

// New creates a Server.
func New(eng *engine.Engine, store storage.SessionStore, opts Options) *Server {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Server{
		engine:       eng,
		store:        store,
		trustProxy:   opts.TrustProxy,
		writeTimeout: writeTimeout,
		gatherer:     gatherer,
		hub:          newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: logging.Log(),
		now: time.Now,
	}
}

// Handler returns the gin engine with all routes.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/v1/sender", s.handleSender)
	r.GET("/api/v1/sessions/:id", s.handleSession)
	r.GET("/v1/ws/:channel", s.handleChannel)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("address", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) derive(r *http.Request) models.SenderData {
	return s.engine.Derive(engine.RequestSource(r, s.trustProxy))
}

func (s *Server) handleSender(c *gin.Context) {
	c.JSON(http.StatusOK, s.derive(c.Request))
}

func (s *Server) handleSession(c *gin.Context) {
	session, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		s.log.WithError(err).Error("Unable to read session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session store unavailable"})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleChannel(c *gin.Context) {
	session := &models.Session{
		ID:          uuid.NewString(),
		Channel:     c.Param("channel"),
		Sender:      s.derive(c.Request),
		ConnectedAt: s.now().UTC(),
	}
	log := s.log.WithFields(logrus.Fields{
		logging.FieldSession:    session.ID,
		logging.FieldChannel:    session.Channel,
		logging.FieldAddrPrefix: geoip.MaskIP(models.Text(session.Sender.Addr)),
	})

	ctx := c.Request.Context()
	if err := s.store.Save(ctx, session); err != nil {
		log.WithError(err).Error("Unable to store session")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already replied
		log.WithError(err).Debug("WebSocket upgrade failed")
		s.dropSession(session.ID, log)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	cl := &client{session: session, conn: conn, writeTimeout: s.writeTimeout}
	s.hub.join(cl)
	log.Info("Client connected")
	defer func() {
		s.hub.leave(cl)
		_ = conn.Close()
		s.dropSession(session.ID, log)
		log.Info("Client disconnected")
	}()

	hello := Frame{Type: FrameHello, Session: session.ID, Sender: &session.Sender}
	if err := cl.writeJSON(hello); err != nil {
		return
	}
	s.relay(cl, log)
}

// relay forwards text frames of cl to the other clients on its channel
// until the connection closes.
func (s *Server) relay(cl *client, log *logrus.Entry) {
	for {
		msgType, payload, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("Unexpected close")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		frame := Frame{
			Type:    FrameMessage,
			Session: cl.session.ID,
			Sender:  &cl.session.Sender,
			Body:    string(payload),
		}
		for _, peer := range s.hub.peers(cl) {
			if err := peer.writeJSON(frame); err != nil {
				log.WithError(err).WithField("peer", peer.session.ID).Debug("Relay failed")
			}
		}
	}
}

func (s *Server) dropSession(id string, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Delete(ctx, id); err != nil {
		log.WithError(err).Warn("Unable to delete session")
	}
}
