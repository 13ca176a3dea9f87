package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusPreparing  OrderStatus = "PREPARING"
	OrderStatusDelivering OrderStatus = "DELIVERING"
	OrderStatusReady      OrderStatus = "READY"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var (
	deliverySequence = []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusPreparing,
		OrderStatusDelivering,
		OrderStatusCompleted,
	}
	pickupSequence = []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusPreparing,
		OrderStatusReady,
		OrderStatusCompleted,
	}
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// StatusSequence returns the linear fulfillment sequence for a mode.
// CANCELLED is never part of it.
func StatusSequence(mode FulfillmentMode) []OrderStatus {
	if mode == ModeDelivery {
		return deliverySequence
	}
	return pickupSequence
}

// NextStatus returns the status following current for the given mode.
func NextStatus(mode FulfillmentMode, current OrderStatus) (OrderStatus, bool) {
	if current.IsTerminal() {
		return "", false
	}
	seq := StatusSequence(mode)
	for i, s := range seq {
		if s == current && i+1 < len(seq) {
			return seq[i+1], true
		}
	}
	return "", false
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCard   PaymentMethod = "CARD"
	PaymentWallet PaymentMethod = "E_WALLET"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentCard || p == PaymentWallet
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PlacedOrder is immutable after creation except for Status and StatusUpdatedAt.
// Total == Subtotal + DeliveryFee - DiscountAmount + VATAmount.
type PlacedOrder struct {
	ID              string            `json:"id"`
	Code            string            `json:"code"`
	BranchID        string            `json:"branch_id"`
	BranchName      string            `json:"branch_name"`
	Mode            FulfillmentMode   `json:"mode"`
	Customer        CustomerInfo      `json:"customer"`
	DeliveryAddress *DeliveryAddress  `json:"delivery_address,omitempty"`
	PaymentMethod   PaymentMethod     `json:"payment_method"`
	Promotion       *AppliedPromotion `json:"promotion,omitempty"`
	Items           []CartLine        `json:"items"`
	Subtotal        int64             `json:"subtotal"`
	DeliveryFee     int64             `json:"delivery_fee"`
	DiscountAmount  int64             `json:"discount_amount"`
	VATAmount       int64             `json:"vat_amount"`
	Total           int64             `json:"total"`
	Note            string            `json:"note,omitempty"`
	PrepMinutes     int               `json:"prep_minutes"`
	DeliveryMinutes int               `json:"delivery_minutes"`
	CreatedAt       time.Time         `json:"created_at"`
	Status          OrderStatus       `json:"status"`
	StatusUpdatedAt time.Time         `json:"status_updated_at"`
}

// Clone deep-copies the order so callers never share line or promo memory with the store.
func (o *PlacedOrder) Clone() *PlacedOrder {
	c := *o
	c.Items = CloneLines(o.Items)
	if o.Promotion != nil {
		p := *o.Promotion
		c.Promotion = &p
	}
	if o.DeliveryAddress != nil {
		a := *o.DeliveryAddress
		if o.DeliveryAddress.Coordinate != nil {
			coord := *o.DeliveryAddress.Coordinate
			a.Coordinate = &coord
		}
		c.DeliveryAddress = &a
	}
	return &c
}
