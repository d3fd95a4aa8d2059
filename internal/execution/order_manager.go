package execution

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderType identifies how an order executes.
type OrderType string

const (
	OrderTypeMarket     OrderType = "market"
	OrderTypeLimit      OrderType = "limit"
	OrderTypeStopLoss   OrderType = "stop_loss"
	OrderTypeTakeProfit OrderType = "take_profit"
)

// OrderStatus tracks an order through its lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusFailed    OrderStatus = "failed"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// Order is a single order tracked by the order manager.
type Order struct {
	ID           string
	Symbol       string
	Side         OrderSide
	Type         OrderType
	Amount       float64
	Price        float64
	StopPrice    float64
	Status       OrderStatus
	FilledAmount float64
	AvgFillPrice float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PaperOrderManager simulates order execution against an in-memory book.
// Market orders fill immediately at the quoted price adjusted for slippage;
// limit and stop orders rest until Fill or Cancel. Exchange connectivity is
// deliberately out of scope.
type PaperOrderManager struct {
	orders   map[string]*Order
	slippage float64
}

// NewPaperOrderManager creates a paper order manager with the given
// slippage fraction applied to market fills.
func NewPaperOrderManager(slippage float64) *PaperOrderManager {
	return &PaperOrderManager{
		orders:   make(map[string]*Order),
		slippage: slippage,
	}
}

// PlaceMarketOrder fills an order immediately at the quote adjusted for
// slippage against the taker.
func (m *PaperOrderManager) PlaceMarketOrder(symbol string, side OrderSide, amount, quote float64) (*Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %.6f", amount)
	}
	if quote <= 0 {
		return nil, fmt.Errorf("quote price must be positive, got %.6f", quote)
	}

	fillPrice := quote * (1 + m.slippage)
	if side == OrderSideSell {
		fillPrice = quote * (1 - m.slippage)
	}

	now := time.Now()
	order := &Order{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		Side:         side,
		Type:         OrderTypeMarket,
		Amount:       amount,
		Price:        quote,
		Status:       OrderStatusFilled,
		FilledAmount: amount,
		AvgFillPrice: fillPrice,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	m.orders[order.ID] = order
	return order, nil
}

// PlaceStopOrder rests a protective order at the given trigger price.
func (m *PaperOrderManager) PlaceStopOrder(symbol string, side OrderSide, orderType OrderType, amount, stopPrice float64) (*Order, error) {
	if amount <= 0 || stopPrice <= 0 {
		return nil, fmt.Errorf("amount and stop price must be positive (amount=%.6f stop=%.6f)", amount, stopPrice)
	}

	now := time.Now()
	order := &Order{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Side:      side,
		Type:      orderType,
		Amount:    amount,
		StopPrice: stopPrice,
		Status:    OrderStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.orders[order.ID] = order
	return order, nil
}

// Fill marks a resting order as filled at the given price.
func (m *PaperOrderManager) Fill(id string, price float64) error {
	order, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("order %s not found", id)
	}
	if order.Status != OrderStatusOpen && order.Status != OrderStatusPending {
		return fmt.Errorf("order %s is %s, cannot fill", id, order.Status)
	}

	order.Status = OrderStatusFilled
	order.FilledAmount = order.Amount
	order.AvgFillPrice = price
	order.UpdatedAt = time.Now()
	return nil
}

// Cancel cancels a resting order. Filled or already-cancelled orders are
// left untouched and reported as an error.
func (m *PaperOrderManager) Cancel(id string) error {
	order, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("order %s not found", id)
	}
	if order.Status == OrderStatusFilled || order.Status == OrderStatusCancelled {
		return fmt.Errorf("order %s is already %s", id, order.Status)
	}

	order.Status = OrderStatusCancelled
	order.UpdatedAt = time.Now()
	return nil
}

// OpenOrders returns all resting orders.
func (m *PaperOrderManager) OpenOrders() []*Order {
	open := make([]*Order, 0)
	for _, order := range m.orders {
		if order.Status == OrderStatusOpen || order.Status == OrderStatusPending {
			open = append(open, order)
		}
	}
	return open
}

// OrderHistory returns every order the manager has seen.
func (m *PaperOrderManager) OrderHistory() []*Order {
	history := make([]*Order, 0, len(m.orders))
	for _, order := range m.orders {
		history = append(history, order)
	}
	return history
}
