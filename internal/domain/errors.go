package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrProductUnavailable = errors.New("product is unavailable")
	ErrProductNotFound    = errors.New("product not found")
	ErrLineNotFound       = errors.New("cart line not found")
	ErrInvalidPromoCode   = errors.New("invalid promo code")
	ErrBranchNotFound     = errors.New("branch not found")
	ErrBranchInactive     = errors.New("branch is not active")
	ErrInvalidMode        = errors.New("invalid fulfillment mode")
	ErrNotPlaceable       = errors.New("order is not placeable")
	ErrOrderNotFound      = errors.New("order not found")
	ErrIllegalTransition  = errors.New("illegal transition of order status")
)

type NotPlaceableReason string

const (
	ReasonNoBranch          NotPlaceableReason = "no_branch"
	ReasonBranchClosed      NotPlaceableReason = "branch_closed"
	ReasonAddressUnresolved NotPlaceableReason = "address_unresolved"
	ReasonEmptyCart         NotPlaceableReason = "empty_cart"
	ReasonInvalidContact    NotPlaceableReason = "invalid_contact"
)

var reasonMessages = map[NotPlaceableReason]string{
	ReasonNoBranch:          "no branch selected",
	ReasonBranchClosed:      "branch is closed",
	ReasonAddressUnresolved: "address unresolved",
	ReasonEmptyCart:         "cart is empty",
	ReasonInvalidContact:    "invalid contact info",
}

// NotPlaceableError tells the caller which placement precondition failed.
type NotPlaceableError struct {
	Reason NotPlaceableReason
}

func (e *NotPlaceableError) Error() string {
	return fmt.Sprintf("%v: %s", ErrNotPlaceable, e.Message())
}

func (e *NotPlaceableError) Message() string {
	if msg, ok := reasonMessages[e.Reason]; ok {
		return msg
	}
	return string(e.Reason)
}

func (e *NotPlaceableError) Is(target error) bool {
	return target == ErrNotPlaceable
}

func NotPlaceable(reason NotPlaceableReason) error {
	return &NotPlaceableError{Reason: reason}
}
