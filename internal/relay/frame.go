package relay

import (
	"encoding/json"
	"errors"
	"strings"

	"soug_elwahah/internal/common"

	"github.com/xeipuuv/gojsonschema"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Loại frame gửi xuống client
const (
	FrameLocation = "location"
	FrameOrder    = "order"
	FrameDelivery = "delivery"
	FrameError    = "error"
	FrameAck      = "ack"
)

const positionSchema = `{
  "type": "object",
  "required": ["orderId", "lat", "lng", "timestamp"],
  "properties": {
    "orderId":   {"type": "string", "pattern": "^[0-9a-fA-F]{24}$"},
    "lat":       {"type": "number", "minimum": -90, "maximum": 90},
    "lng":       {"type": "number", "minimum": -180, "maximum": 180},
    "timestamp": {"type": "integer", "minimum": 0}
  },
  "additionalProperties": false
}`

var positionLoader = gojsonschema.NewStringLoader(positionSchema)

// PositionFrame là frame vị trí tài xế gửi lên
type PositionFrame struct {
	OrderID   string  `json:"orderId"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
}

// Envelope là frame gửi xuống client
type Envelope struct {
	Type    string      `json:"type"`
	OrderID string      `json:"orderId,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// parsePosition kiểm schema rồi decode frame; sai schema trả ErrInvalidFrame kèm danh sách lỗi
func parsePosition(raw []byte) (PositionFrame, primitive.ObjectID, error) {
	var f PositionFrame
	result, err := gojsonschema.Validate(positionLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return f, primitive.NilObjectID, common.WithDetails(common.ErrInvalidFrame, err.Error())
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return f, primitive.NilObjectID, common.WithDetails(common.ErrInvalidFrame, strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, primitive.NilObjectID, common.WithDetails(common.ErrInvalidFrame, err.Error())
	}
	orderID, err := primitive.ObjectIDFromHex(f.OrderID)
	if err != nil {
		return f, primitive.NilObjectID, common.WithDetails(common.ErrInvalidFrame, "orderId")
	}
	return f, orderID, nil
}

func errorEnvelope(orderID string, err error) Envelope {
	env := Envelope{Type: FrameError, OrderID: orderID, Error: err.Error()}
	var e *common.Error
	if errors.As(err, &e) {
		env.Code = e.Code.Code
		if d, ok := e.Details.(string); ok && d != "" {
			env.Error = e.Message + ": " + d
		}
	}
	return env
}

func encode(env Envelope) []byte {
	b, _ := json.Marshal(env)
	return b
}
