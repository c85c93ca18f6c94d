package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// 閘道端的訂單狀態
const (
	StatusCreated    = "created"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusRejected   = "rejected"
	StatusRefunded   = "refunded"
)

type CreateOrderRequest struct {
	ExternalOrderID string          `json:"external_order_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Description     string          `json:"description"`
	CallbackURL     string          `json:"callback_url"`
	BuyerID         uint64          `json:"buyer_id"`
}

type CreateOrderResponse struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
	Status      string `json:"status"`
}

// Callback 是閘道回呼的酬載，以 external_order_id 對應回拍賣
type Callback struct {
	ExternalOrderID string `json:"external_order_id" binding:"required"`
	OrderID         string `json:"order_id"`
	OrderStatus     string `json:"order_status" binding:"required"`
}

func (c *Callback) Completed() bool {
	return c.OrderStatus == StatusCompleted
}

// Gateway 抽象外部支付服務，測試時可注入假實作
type Gateway interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error)
	OrderStatus(ctx context.Context, orderID string) (string, error)
}
