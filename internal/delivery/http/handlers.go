package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/andikafarhan/coretan/internal/config"
	"github.com/andikafarhan/coretan/internal/delivery/ws"
	"github.com/andikafarhan/coretan/internal/store"
	"github.com/andikafarhan/coretan/internal/usecase"
)

// isOriginAllowed checks if the origin is in the allowed list
func isOriginAllowed(origin string) bool {
	// Empty origin is allowed (same-origin requests)
	if origin == "" {
		return true
	}

	for _, allowed := range config.AppConfig.AllowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return isOriginAllowed(origin)
	},
}

// Handler serves the thin room API and the websocket upgrade endpoint
type Handler struct {
	store *store.Store
	hub   *ws.Hub
}

// NewHandler creates the HTTP handler set
func NewHandler(st *store.Store, hub *ws.Hub) *Handler {
	return &Handler{
		store: st,
		hub:   hub,
	}
}

// HandleCreateRoom allocates a fresh room code and creates the room
func (h *Handler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code, err := usecase.AllocateRoomCode(r.Context(), h.store.RoomExists)
	if err != nil {
		log.Printf("create room: %v", err)
		http.Error(w, "Failed to create room", http.StatusInternalServerError)
		return
	}

	if err := h.store.CreateRoom(r.Context(), code); err != nil {
		log.Printf("create room %s: %v", code, err)
		http.Error(w, "Failed to create room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"roomCode": code,
	})
}

// HandleJoinRoom validates a caller-supplied room code, creating the
// room if it doesn't exist yet, and returns its current metadata
func (h *Handler) HandleJoinRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		RoomCode string `json:"roomCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	code := usecase.NormalizeRoomCode(req.RoomCode)
	if !usecase.IsValidRoomCode(code) {
		http.Error(w, "Room code must be 6-8 letters and digits", http.StatusBadRequest)
		return
	}

	if err := h.store.CreateRoom(r.Context(), code); err != nil {
		log.Printf("join room %s: %v", code, err)
		http.Error(w, "Failed to join room", http.StatusInternalServerError)
		return
	}

	info, err := h.store.RoomInfo(r.Context(), code)
	if err != nil {
		log.Printf("join room %s: %v", code, err)
		http.Error(w, "Failed to join room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"roomCode":       info.Code,
		"createdAt":      info.CreatedAt,
		"activeUsers":    info.ActiveUsers,
		"hasDrawingData": info.CommandCount > 0,
	})
}

// HandleRoomInfo serves room metadata for GET /api/rooms/{code}
func (h *Handler) HandleRoomInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := usecase.NormalizeRoomCode(strings.TrimPrefix(r.URL.Path, "/api/rooms/"))
	if code == "" || strings.Contains(code, "/") {
		http.NotFound(w, r)
		return
	}

	info, err := h.store.RoomInfo(r.Context(), code)
	if errors.Is(err, store.ErrRoomNotFound) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Room not found",
		})
		return
	}
	if err != nil {
		log.Printf("room info %s: %v", code, err)
		http.Error(w, "Failed to get room information", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// HandleHealth reports service liveness
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleWebSocket upgrades the connection and starts its pumps. The
// connection joins a room later through its join-room event.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
