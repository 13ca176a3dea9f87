package order

import (
	"regexp"
	"strings"

	"github.com/fjod/coffee_cart/internal/domain"
)

// Vietnamese mobile numbers: 0 or +84, a carrier prefix, eight digits.
var phonePattern = regexp.MustCompile(`^(0|\+84)(3|5|7|8|9)\d{8}$`)

// NormalizePhone strips spaces, dots and dashes people type between digit groups.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", ".", "", "-", "").Replace(strings.TrimSpace(phone))
}

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

func validContact(c domain.CustomerInfo) bool {
	return strings.TrimSpace(c.Name) != "" && ValidPhone(c.Phone)
}
