package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	deliverymodels "soug_elwahah/internal/api/delivery/models"
	"soug_elwahah/internal/api/events"
	"soug_elwahah/internal/api/middleware"
	ordermodels "soug_elwahah/internal/api/order/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"
)

const (
	maxFrameSize    = 1024
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10
	limiterIdleTTL  = 30 * time.Minute
	limiterSweepGap = 5 * time.Minute
)

// OrderReader là phần của order service mà relay dùng
type OrderReader interface {
	Load(ctx context.Context, id primitive.ObjectID) (*ordermodels.Order, error)
	RecordDriverLocation(ctx context.Context, id primitive.ObjectID, p ordermodels.GeoPoint) error
}

// LocationRecorder kiểm tài xế được giao chuyến đang chạy của đơn rồi ghi vị trí
type LocationRecorder interface {
	RecordLocation(ctx context.Context, driverID, orderID primitive.ObjectID, loc deliverymodels.Location) (*deliverymodels.Delivery, error)
}

type driverLimiter struct {
	lim  *rate.Limiter
	last atomic.Int64
}

// Server là relay websocket chạy trên listener net/http riêng
type Server struct {
	hub        *Hub
	tokens     middleware.TokenParser
	orders     OrderReader
	deliveries LocationRecorder

	limit    rate.Limit
	burst    int
	limiters sync.Map // driverId hex -> *driverLimiter

	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewServer tạo relay; ratePerSecond/burst là hạn mức frame vị trí của mỗi tài xế
func NewServer(tokens middleware.TokenParser, orders OrderReader, deliveries LocationRecorder, ratePerSecond float64, burst int) *Server {
	if ratePerSecond <= 0 {
		ratePerSecond = 2
	}
	if burst <= 0 {
		burst = 5
	}
	return &Server{
		hub:        NewHub(),
		tokens:     tokens,
		orders:     orders,
		deliveries: deliveries,
		limit:      rate.Limit(ratePerSecond),
		burst:      burst,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxFrameSize,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Routes dựng router chi của relay
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws/orders/{orderID}", s.handleSubscribe)
	r.Get("/ws/driver", s.handleDriver)
	return r
}

// Run phục vụ relay tới khi ctx bị hủy
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              ":" + address,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweepLimiters(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.WithModule("relay").WithField("address", srv.Addr).Info("📡 [RELAY] Đang lắng nghe")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// authenticate lấy JWT từ header Authorization hoặc query token
func (s *Server) authenticate(r *http.Request) (authmodels.Actor, error) {
	var token string
	if h := r.Header.Get("Authorization"); h != "" {
		t, err := middleware.BearerToken(h)
		if err != nil {
			return authmodels.Actor{}, err
		}
		token = t
	} else {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return authmodels.Actor{}, common.ErrTokenMissing
	}
	role := r.Header.Get(middleware.ActiveRoleHeader)
	if role == "" {
		role = r.URL.Query().Get("role")
	}
	return s.tokens.Parse(token, role)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	orderID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, common.WithDetails(common.ErrInvalidInput, "orderID"))
		return
	}
	o, err := s.orders.Load(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !o.CanView(actor) {
		writeError(w, common.ErrForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	key := orderID.Hex()
	sub := newSubscriber()
	s.hub.subscribe(key, sub)
	sub.send <- encode(Envelope{Type: FrameOrder, OrderID: key, Data: newOrderView(o)})

	log := logger.WithModule("relay").WithFields(logrus.Fields{"orderId": key, "userId": actor.UserID.Hex()})
	log.Debug("📡 [RELAY] Subscriber kết nối")

	go writePump(conn, sub)
	// client chỉ nghe; đọc để nhận pong và phát hiện đóng kết nối
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.hub.unsubscribe(key, sub)
	log.Debug("📡 [RELAY] Subscriber ngắt kết nối")
}

func writePump(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleDriver(w http.ResponseWriter, r *http.Request) {
	actor, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !actor.Is(authmodels.RoleDriver) {
		writeError(w, common.ErrForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	log := logger.WithModule("relay").WithField("driverId", actor.UserID.Hex())
	log.Debug("📡 [RELAY] Tài xế kết nối")
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Debug("📡 [RELAY] Tài xế ngắt kết nối")
			return
		}
		var reply Envelope
		frame, err := s.HandlePosition(r.Context(), actor.UserID, raw)
		if err != nil {
			reply = errorEnvelope(frame.OrderID, err)
		} else {
			reply = Envelope{Type: FrameAck, OrderID: frame.OrderID}
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, encode(reply)); err != nil {
			return
		}
	}
}

// HandlePosition xử lý một frame vị trí của tài xế: kiểm schema, hạn mức, quyền trên chuyến giao,
// ghi vị trí vào chuyến giao và đơn rồi phát cho subscriber. Frame bị từ chối không được ghi.
func (s *Server) HandlePosition(ctx context.Context, driverID primitive.ObjectID, raw []byte) (PositionFrame, error) {
	frame, orderID, err := parsePosition(raw)
	if err != nil {
		return frame, err
	}
	if !s.limiterFor(driverID.Hex()).Allow() {
		return frame, common.ErrRateLimited
	}
	if frame.Timestamp == 0 {
		frame.Timestamp = s.now().UnixMilli()
	}

	loc := deliverymodels.Location{Lat: frame.Lat, Lng: frame.Lng, Timestamp: frame.Timestamp}
	if _, err := s.deliveries.RecordLocation(ctx, driverID, orderID, loc); err != nil {
		return frame, err
	}
	if err := s.orders.RecordDriverLocation(ctx, orderID, ordermodels.GeoPoint(loc)); err != nil {
		logger.WithContext(ctx).WithFields(logrus.Fields{
			"orderId": frame.OrderID,
			"error":   err.Error(),
		}).Warn("📡 [RELAY] Không ghi được vị trí lên đơn hàng")
	}

	s.hub.Broadcast(frame.OrderID, encode(Envelope{
		Type:    FrameLocation,
		OrderID: frame.OrderID,
		Data: map[string]interface{}{
			"driverId":  driverID.Hex(),
			"lat":       frame.Lat,
			"lng":       frame.Lng,
			"timestamp": frame.Timestamp,
		},
	}))
	return frame, nil
}

func (s *Server) limiterFor(driverID string) *rate.Limiter {
	v, ok := s.limiters.Load(driverID)
	if !ok {
		v, _ = s.limiters.LoadOrStore(driverID, &driverLimiter{lim: rate.NewLimiter(s.limit, s.burst)})
	}
	dl := v.(*driverLimiter)
	dl.last.Store(s.now().UnixMilli())
	return dl.lim
}

func (s *Server) sweepLimiters(ctx context.Context) {
	t := time.NewTicker(limiterSweepGap)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			cutoff := s.now().Add(-limiterIdleTTL).UnixMilli()
			s.limiters.Range(func(key, val any) bool {
				if val.(*driverLimiter).last.Load() < cutoff {
					s.limiters.Delete(key)
				}
				return true
			})
		}
	}
}

// OnDataChanged phát thay đổi của đơn và chuyến giao cho subscriber của đơn
func (s *Server) OnDataChanged(_ context.Context, e events.DataChangeEvent) {
	switch doc := e.Document.(type) {
	case ordermodels.Order:
		s.hub.Broadcast(doc.ID.Hex(), encode(Envelope{Type: FrameOrder, OrderID: doc.ID.Hex(), Data: newOrderView(&doc)}))
	case deliverymodels.Delivery:
		s.hub.Broadcast(doc.OrderID.Hex(), encode(Envelope{
			Type:    FrameDelivery,
			OrderID: doc.OrderID.Hex(),
			Data: map[string]interface{}{
				"deliveryId":   doc.ID.Hex(),
				"status":       doc.Status,
				"lastLocation": doc.LastLocation,
				"updatedAt":    doc.UpdatedAt,
			},
		}))
	}
}

// orderView là phần đơn hàng gửi cho subscriber
type orderView struct {
	OrderNumber           string                  `json:"orderNumber"`
	Status                ordermodels.OrderStatus `json:"status"`
	DriverLocation        *ordermodels.GeoPoint   `json:"driverLocation,omitempty"`
	EstimatedDeliveryTime *int64                  `json:"estimatedDeliveryTime,omitempty"`
	UpdatedAt             int64                   `json:"updatedAt"`
}

func newOrderView(o *ordermodels.Order) orderView {
	return orderView{
		OrderNumber:           o.OrderNumber,
		Status:                o.Status,
		DriverLocation:        o.DriverLocation,
		EstimatedDeliveryTime: o.EstimatedDeliveryTime,
		UpdatedAt:             o.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	body := map[string]interface{}{"status": "error", "message": err.Error()}
	var e *common.Error
	if errors.As(err, &e) {
		body["code"] = e.Code.Code
	}
	writeJSON(w, common.HTTPStatus(err), body)
}
