package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Cho phép kết nối từ mọi nguồn
	},
}

// OccupancyUpdate là message đẩy cho các client đang theo dõi bản đồ bãi đỗ.
type OccupancyUpdate struct {
	ParkingLotID int `json:"parking_lot_id"`
	FreeSpaces   int `json:"free_spaces"`
}

type WebSocketManager struct {
	parkingService *service.ParkingService
	clients        map[*websocket.Conn]bool // Kết nối WebSocket hiện tại
	register       chan *websocket.Conn
	unregister     chan *websocket.Conn
	broadcast      chan []byte
	mutex          sync.RWMutex
}

func NewWebSocketManager(parkingService *service.ParkingService) *WebSocketManager {
	return &WebSocketManager{
		parkingService: parkingService,
		clients:        make(map[*websocket.Conn]bool),
		register:       make(chan *websocket.Conn),
		unregister:     make(chan *websocket.Conn),
		broadcast:      make(chan []byte, 16),
	}
}

func (wsm *WebSocketManager) Start() {
	for {
		select {
		case client := <-wsm.register:
			wsm.mutex.Lock()
			wsm.clients[client] = true
			wsm.mutex.Unlock()
			log.Printf("WebSocket client kết nối. Tổng: %d", len(wsm.clients))

		case client := <-wsm.unregister:
			wsm.mutex.Lock()
			if _, ok := wsm.clients[client]; ok {
				delete(wsm.clients, client)
				client.Close()
			}
			wsm.mutex.Unlock()
			log.Printf("WebSocket client ngắt kết nối. Tổng: %d", len(wsm.clients))

		case message := <-wsm.broadcast:
			wsm.mutex.Lock()
			for client := range wsm.clients {
				err := client.WriteMessage(websocket.TextMessage, message)
				if err != nil {
					log.Printf("Lỗi ghi WebSocket client: %v", err)
					client.Close()
					delete(wsm.clients, client)
				}
			}
			wsm.mutex.Unlock()
		}
	}
}

// NotifyOccupancyChanged cài service.OccupancyNotifier: đếm lại chỗ trống và
// broadcast cho mọi client. Kênh đầy thì bỏ message, client sẽ nhận bản đếm
// mới ở lần thay đổi kế tiếp.
func (wsm *WebSocketManager) NotifyOccupancyChanged(ctx context.Context, lotID int) {
	free, err := wsm.parkingService.CountFreeSpaces(ctx, lotID)
	if err != nil {
		log.Printf("Lỗi đếm chỗ trống cho broadcast bãi %d: %v", lotID, err)
		return
	}

	message, err := json.Marshal(OccupancyUpdate{ParkingLotID: lotID, FreeSpaces: free})
	if err != nil {
		log.Printf("Lỗi mã hoá occupancy update: %v", err)
		return
	}

	select {
	case wsm.broadcast <- message:
	default:
		log.Println("Kênh broadcast đầy, bỏ qua message")
	}
}

type WebSocketHandler struct {
	wsManager *WebSocketManager
}

func NewWebSocketHandler(wsManager *WebSocketManager) *WebSocketHandler {
	return &WebSocketHandler{wsManager: wsManager}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Lỗi nâng cấp kết nối WebSocket: %v", err)
		return
	}

	h.wsManager.register <- conn

	// Giữ kết nối và bắt sự kiện ngắt
	go func() {
		defer func() {
			h.wsManager.unregister <- conn
		}()

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("Lỗi WebSocket: %v", err)
				}
				break
			}
		}
	}()
}
