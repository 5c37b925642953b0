package ws

import (
	"encoding/json"
	"errors"
	"time"
)

// MessageType identifies the kind of message on the gateway socket
type MessageType string

const (
	// Client message types
	MessageTypePlaceBid   MessageType = "place_bid"
	MessageTypeGetLot     MessageType = "get_lot"
	MessageTypeGetBids    MessageType = "get_bids"
	MessageTypeCreateLot  MessageType = "create_lot"
	MessageTypeForceStart MessageType = "force_start"
	MessageTypePing       MessageType = "ping"

	// Server message types
	MessageTypeResult MessageType = "result"
	MessageTypeError  MessageType = "error"
	MessageTypePong   MessageType = "pong"
)

var (
	errMessageTypeRequired = errors.New("message type is required")
	errLotIDRequired       = errors.New("lot_id is required")
	errUserIDRequired      = errors.New("user_id is required")
	errAmountRequired      = errors.New("valid amount is required")
	errNameRequired        = errors.New("name is required")
	errStartTimeRequired   = errors.New("start_time is required")
	errUnknownMessageType  = errors.New("unknown message type")
)

// ClientMessage is a request arriving over the gateway socket
type ClientMessage struct {
	Type       MessageType `json:"type"`
	LotID      int64       `json:"lot_id,omitempty"`
	UserID     int64       `json:"user_id,omitempty"`
	UserName   string      `json:"user_name,omitempty"`
	Amount     float64     `json:"amount,omitempty"`
	Name       string      `json:"name,omitempty"`
	Article    string      `json:"article,omitempty"`
	Desc       string      `json:"description,omitempty"`
	StartPrice float64     `json:"start_price,omitempty"`
	StartTime  string      `json:"start_time,omitempty"`
}

// ServerMessage is a response sent back over the gateway socket
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ParseClientMessage decodes a raw socket frame
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate checks the message carries the fields its type requires
func (m *ClientMessage) Validate() error {
	if m.Type == "" {
		return errMessageTypeRequired
	}

	switch m.Type {
	case MessageTypePlaceBid:
		if m.LotID == 0 {
			return errLotIDRequired
		}
		if m.UserID == 0 {
			return errUserIDRequired
		}
		if m.Amount <= 0 {
			return errAmountRequired
		}
	case MessageTypeGetLot, MessageTypeGetBids, MessageTypeForceStart:
		if m.LotID == 0 {
			return errLotIDRequired
		}
	case MessageTypeCreateLot:
		if m.LotID == 0 {
			return errLotIDRequired
		}
		if m.Name == "" {
			return errNameRequired
		}
		if m.StartTime == "" {
			return errStartTimeRequired
		}
	case MessageTypePing:
		// No payload
	default:
		return errUnknownMessageType
	}

	return nil
}

// NewServerMessage creates a server message of the given type
func NewServerMessage(msgType MessageType) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Timestamp: time.Now().Unix(),
	}
}

// NewResultMessage creates a result message carrying data
func NewResultMessage(data interface{}) *ServerMessage {
	msg := NewServerMessage(MessageTypeResult)
	msg.Data = data
	return msg
}

// NewErrorMessage creates an error message
func NewErrorMessage(errText string) *ServerMessage {
	msg := NewServerMessage(MessageTypeError)
	msg.Error = errText
	return msg
}
