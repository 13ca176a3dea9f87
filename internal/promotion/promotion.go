package promotion

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrInvalidRule = errors.New("invalid promotion rule")

type Rule struct {
	Code  string           `json:"code" yaml:"code"`
	Label string           `json:"label" yaml:"label"`
	Type  domain.PromoType `json:"type" yaml:"type"`
	Value int64            `json:"value" yaml:"value"`
}

// DefaultRules is the static code table shipped with the storefront.
var DefaultRules = []Rule{
	{Code: "WELCOME10", Label: "10% off your order", Type: domain.PromoPercent, Value: 10},
	{Code: "COFFEE20K", Label: "20.000đ off", Type: domain.PromoFixed, Value: 20000},
	{Code: "FREESHIP", Label: "Free delivery", Type: domain.PromoFreeShip},
}

// Quote is what a discount is computed against.
type Quote struct {
	Subtotal    int64
	DeliveryFee int64
	Mode        domain.FulfillmentMode
}

// Engine holds the rule table and at most one applied promotion.
type Engine struct {
	rules   map[string]Rule
	applied *domain.AppliedPromotion
}

func NewEngine(rules []Rule) (*Engine, error) {
	e := &Engine{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		r.Code = normalizeCode(r.Code)
		if err := validateRule(r); err != nil {
			return nil, err
		}
		e.rules[r.Code] = r
	}
	return e, nil
}

func validateRule(r Rule) error {
	if r.Code == "" {
		return fmt.Errorf("%w: empty code", ErrInvalidRule)
	}
	switch r.Type {
	case domain.PromoPercent:
		if r.Value <= 0 || r.Value > 100 {
			return fmt.Errorf("%w: %s percent %d outside (0, 100]", ErrInvalidRule, r.Code, r.Value)
		}
	case domain.PromoFixed:
		if r.Value <= 0 {
			return fmt.Errorf("%w: %s fixed amount %d must be positive", ErrInvalidRule, r.Code, r.Value)
		}
	case domain.PromoFreeShip:
	default:
		return fmt.Errorf("%w: %s unknown type %q", ErrInvalidRule, r.Code, r.Type)
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ApplyCode replaces the active promotion. An unknown code leaves the current
// one in place.
func (e *Engine) ApplyCode(code string, q Quote) (domain.AppliedPromotion, error) {
	normalized := normalizeCode(code)
	rule, ok := e.rules[normalized]
	if !ok {
		return domain.AppliedPromotion{}, fmt.Errorf("%w: %q", domain.ErrInvalidPromoCode, strings.TrimSpace(code))
	}
	applied := domain.AppliedPromotion{
		Code:     rule.Code,
		Label:    rule.Label,
		Type:     rule.Type,
		Value:    rule.Value,
		Discount: Discount(rule, q),
	}
	e.applied = &applied
	return applied, nil
}

func (e *Engine) RemovePromo() {
	e.applied = nil
}

func (e *Engine) Applied() (domain.AppliedPromotion, bool) {
	if e.applied == nil {
		return domain.AppliedPromotion{}, false
	}
	return *e.applied, true
}

// Reprice recomputes the discount of the active promotion after the subtotal,
// fee or mode changed.
func (e *Engine) Reprice(q Quote) {
	if e.applied == nil {
		return
	}
	rule := Rule{Code: e.applied.Code, Label: e.applied.Label, Type: e.applied.Type, Value: e.applied.Value}
	e.applied.Discount = Discount(rule, q)
}

// Discount resolves a rule to a currency amount. It is never negative and
// never exceeds what it discounts.
func Discount(rule Rule, q Quote) int64 {
	var amount int64
	switch rule.Type {
	case domain.PromoPercent:
		amount = decimal.NewFromInt(q.Subtotal).
			Mul(decimal.NewFromInt(rule.Value)).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
		amount = min(amount, q.Subtotal)
	case domain.PromoFixed:
		amount = min(rule.Value, q.Subtotal)
	case domain.PromoFreeShip:
		if q.Mode == domain.ModeDelivery {
			amount = q.DeliveryFee
		}
	}
	return max(amount, 0)
}
