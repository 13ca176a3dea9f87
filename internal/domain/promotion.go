package domain

type PromoType string

const (
	PromoPercent  PromoType = "percent"
	PromoFixed    PromoType = "fixed"
	PromoFreeShip PromoType = "freeship"
)

// AppliedPromotion carries the discount already resolved to a currency amount.
type AppliedPromotion struct {
	Code     string    `json:"code"`
	Label    string    `json:"label"`
	Type     PromoType `json:"type"`
	Value    int64     `json:"value"`
	Discount int64     `json:"discount"`
}
