package ws

import (
	"context"
	"net/http"
	"time"

	"cenolover-auction-engine/internal/ports/inbound"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WsHandler upgrades gateway connections and routes client messages to the
// engine services. The chat frontend talks to the engine through this socket;
// all rendering stays on the frontend's side.
type WsHandler struct {
	lotService inbound.LotService
	bidService inbound.BidService
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
}

type WsHandlerParams struct {
	LotService inbound.LotService
	BidService inbound.BidService
	Logger     zerolog.Logger
}

// NewHandler creates a new gateway handler
func NewHandler(params WsHandlerParams) *WsHandler {
	return &WsHandler{
		lotService: params.LotService,
		bidService: params.BidService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: params.Logger.With().Str("component", "ws_handler").Logger(),
	}
}

// HandleWebSocket upgrades the connection and starts the client loop
func (h *WsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	client := NewClient(WsClientParams{
		Conn:    conn,
		Handler: h,
		Logger:  h.logger,
	})
	client.Start()
}

// HandleClientMessage routes one validated client message to a service call
func (h *WsHandler) HandleClientMessage(client *WsClient, msg *ClientMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch msg.Type {
	case MessageTypePlaceBid:
		outcome, err := h.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{
			LotID:    msg.LotID,
			UserID:   msg.UserID,
			UserName: msg.UserName,
			Amount:   msg.Amount,
		})
		if err != nil {
			// Rejections carry their specific reason back to the caller
			return client.Send(NewErrorMessage(err.Error()))
		}
		return client.Send(NewResultMessage(outcome))

	case MessageTypeGetLot:
		l, err := h.lotService.GetLot(ctx, msg.LotID)
		if err != nil {
			return client.Send(NewErrorMessage(err.Error()))
		}
		return client.Send(NewResultMessage(l))

	case MessageTypeGetBids:
		bids, err := h.bidService.GetBids(ctx, msg.LotID)
		if err != nil {
			return client.Send(NewErrorMessage(err.Error()))
		}
		return client.Send(NewResultMessage(bids))

	case MessageTypeCreateLot:
		startTime, err := time.Parse(time.RFC3339, msg.StartTime)
		if err != nil {
			return client.Send(NewErrorMessage("invalid start_time format"))
		}
		l, err := h.lotService.CreateLot(ctx, inbound.CreateLotRequest{
			LotID:       msg.LotID,
			Name:        msg.Name,
			Article:     msg.Article,
			Description: msg.Desc,
			StartPrice:  msg.StartPrice,
			StartTime:   startTime,
		})
		if err != nil {
			return client.Send(NewErrorMessage(err.Error()))
		}
		return client.Send(NewResultMessage(l))

	case MessageTypeForceStart:
		if err := h.lotService.ForceStart(ctx, msg.LotID); err != nil {
			return client.Send(NewErrorMessage(err.Error()))
		}
		return client.Send(NewResultMessage(map[string]int64{"lot_id": msg.LotID}))
	}

	return errUnknownMessageType
}
