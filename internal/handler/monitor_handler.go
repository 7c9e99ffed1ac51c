package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campusgrid/exam-backend/internal/config"
	"github.com/campusgrid/exam-backend/internal/middleware"
	"github.com/campusgrid/exam-backend/internal/response"
	"github.com/campusgrid/exam-backend/internal/service"
)

const (
	monitorWriteTimeout = 10 * time.Second
	monitorPingInterval = 30 * time.Second
)

// MonitorHandler streams live anti-cheat signals to the exam owner over a
// WebSocket, fed by the Redis monitor channel the heartbeat path publishes
// to. Telemetry only; nothing here feeds back into scoring.
type MonitorHandler struct {
	rdb         *redis.Client
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		rdb:         rdb,
		examService: examService,
		log:         log.With().Str("component", "monitor_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// buildUpgrader creates a WebSocket upgrader with origin validation. An empty
// origin list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorExam godoc
// WS /api/v1/faculty/exams/:exam_id/monitor
func (h *MonitorHandler) MonitorExam(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Ownership check happens before the upgrade so the client gets a proper
	// HTTP error instead of a dropped socket.
	if _, err := h.examService.Get(c.Request.Context(), p, examID); err != nil {
		failFromService(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("exam_id", examID.String()).
		Str("faculty_id", p.ID).
		Logger()
	wsLog.Info().Msg("Monitor connected")

	sub := h.rdb.Subscribe(c.Request.Context(), config.ChannelKey.ExamMonitorChannel(examID.String()))
	defer sub.Close()

	// Reader goroutine: its only job is to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(monitorPingInterval)
	defer ping.Stop()

	ch := sub.Channel()
	for {
		select {
		case <-done:
			wsLog.Info().Msg("Monitor disconnected")
			return
		case <-c.Request.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(monitorWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Monitor write failed")
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(monitorWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
