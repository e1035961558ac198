// Package relay là kênh realtime theo dõi đơn hàng: tài xế đẩy vị trí qua websocket,
// người tham gia đơn nhận vị trí và thay đổi trạng thái của đơn.
package relay

import (
	"sync"
)

const sendBuffer = 16

// subscriber là một kết nối đang nghe feed của một đơn
type subscriber struct {
	send chan []byte
	once sync.Once
}

func newSubscriber() *subscriber {
	return &subscriber{send: make(chan []byte, sendBuffer)}
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// Hub giữ tập subscriber theo orderId
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*subscriber]struct{})}
}

func (h *Hub) subscribe(orderID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[orderID]
	if !ok {
		room = make(map[*subscriber]struct{})
		h.rooms[orderID] = room
	}
	room[s] = struct{}{}
}

func (h *Hub) unsubscribe(orderID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[orderID]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, orderID)
		}
	}
	s.close()
}

// Broadcast gửi payload cho mọi subscriber của đơn, trả về số subscriber nhận được.
// Subscriber đầy buffer bị bỏ frame này, không chặn người gửi.
func (h *Hub) Broadcast(orderID string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for s := range h.rooms[orderID] {
		select {
		case s.send <- payload:
			n++
		default:
		}
	}
	return n
}

// Subscribers trả về số kết nối đang nghe đơn
func (h *Hub) Subscribers(orderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[orderID])
}
