package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/chepyr/tasks-api/shared"
	"github.com/chepyr/tasks-api/shared/models"
	"github.com/gorilla/websocket"
)

const (
	EventTaskCreated = "task_created"
	EventTaskUpdated = "task_updated"

	wsWriteTimeout = 5 * time.Second
)

// TaskService is the lifecycle engine the handlers delegate to.
type TaskService interface {
	Create(ownerID string, body any) (models.Task, error)
	Get(callerID string, params any) (models.Task, error)
	Update(callerID string, params, body any) (models.Task, error)
}

type Handler struct {
	Tasks          TaskService
	RateLimiter    *RateLimiter
	WSHub          *WSHub
	JWTSecret      string
	AllowedOrigins []string
	// proxies whose X-Forwarded-For header is honoured; empty means none
	TrustedProxies []netip.Prefix
}

// Routes registers every endpoint on a fresh mux wrapped with request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("POST /api/internal/task", h.AuthMiddleware(h.CreateTask))
	mux.HandleFunc("GET /api/internal/task/{id}", h.AuthMiddleware(h.GetTask))
	mux.HandleFunc("PUT /api/internal/task/{id}", h.AuthMiddleware(h.UpdateTask))
	mux.HandleFunc("GET /ws", h.AuthMiddleware(h.HandleWebSocket))
	return requestLogging(mux)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	shared.SendJSON(w, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// WSHub fans task events out to the WebSocket connections of the task owner.
type WSHub struct {
	connections map[string]map[*wsClient]bool
	mutex       sync.Mutex
}

// wsClient serializes writes on one connection; gorilla allows a single writer.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) write(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

func NewWSHub() *WSHub {
	return &WSHub{connections: make(map[string]map[*wsClient]bool)}
}

func (h *WSHub) register(userID string, conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.connections[userID] == nil {
		h.connections[userID] = make(map[*wsClient]bool)
	}
	h.connections[userID][client] = true
	return client
}

func (h *WSHub) unregister(userID string, client *wsClient) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.connections[userID], client)
	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
	}
}

// ConnectionCount returns the number of live connections of a user.
func (h *WSHub) ConnectionCount(userID string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections[userID])
}

func (h *WSHub) clientsOf(userID string) []*wsClient {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	clients := make([]*wsClient, 0, len(h.connections[userID]))
	for c := range h.connections[userID] {
		clients = append(clients, c)
	}
	return clients
}

// BroadcastTaskEvent sends an event about task to every connection of its owner.
// Writes happen outside the hub lock. A nil hub is a no-op.
func (h *WSHub) BroadcastTaskEvent(event string, task models.Task) {
	if h == nil {
		return
	}
	message, err := json.Marshal(map[string]any{
		"event": event,
		"task":  task,
	})
	if err != nil {
		log.Printf("Failed to marshal task event: %v", err)
		return
	}

	for _, client := range h.clientsOf(task.OwnerID) {
		if err := client.write(message); err != nil {
			log.Printf("Failed to send WebSocket message: %v", err)
			h.unregister(task.OwnerID, client)
			client.conn.Close()
		}
	}
}

// CloseAll drops every connection, used on shutdown.
func (h *WSHub) CloseAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for userID, clients := range h.connections {
		for c := range clients {
			c.conn.Close()
		}
		delete(h.connections, userID)
	}
}

// RateLimiter allows up to limit attempts per key within each window.
type RateLimiter struct {
	attempts map[string]int
	limit    int
	mutex    sync.Mutex
	window   time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		attempts: make(map[string]int),
		limit:    limit,
		window:   window,
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	count, exists := rl.attempts[key]
	if !exists {
		rl.attempts[key] = 1
		return true
	}
	if count >= rl.limit {
		return false
	}
	rl.attempts[key]++
	return true
}

// reset the attempts map every window duration
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mutex.Lock()
			rl.attempts = make(map[string]int)
			rl.mutex.Unlock()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	ip := h.clientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(ip) {
		log.Printf("Rate limit exceeded for IP: %s", ip)
		shared.SendError(w, shared.CodeRateLimited, "Too many WebSocket connection attempts", http.StatusTooManyRequests)
		return
	}
	if h.WSHub == nil {
		shared.SendError(w, shared.CodeInternal, "Live updates are disabled", http.StatusServiceUnavailable)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := h.WSHub.register(userID, conn)
	defer func() {
		h.WSHub.unregister(userID, client)
		conn.Close()
	}()

	// clients only listen; reading detects closed connections
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// checkOrigin allows every origin when no list is configured, and requests without an
// Origin header (non-browser clients).
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if len(h.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	for _, allowed := range h.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// clientIP keys rate limiting on the connecting address. X-Forwarded-For is only read
// when that address is a trusted proxy; the rightmost untrusted hop is the client.
func (h *Handler) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !h.isTrustedProxy(host) {
		return host
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !h.isTrustedProxy(hop) {
			return hop
		}
	}
	return host
}

func (h *Handler) isTrustedProxy(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range h.TrustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// Hijack keeps WebSocket upgrades working behind the recorder.
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rec.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("method=%s path=%s status=%d dur=%s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
