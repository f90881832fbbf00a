package checkout

import (
	"strconv"
	"strings"

	"github.com/jrsteele09/clinician-portal/internal/config"
	apperrors "github.com/jrsteele09/clinician-portal/internal/errors"
)

// ParsePrice reads the whole-unit amount out of a display price by keeping
// only its digits, so "₹9,999" is 9999.
func ParsePrice(display string) (int, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, display)
	if digits == "" {
		return 0, apperrors.ErrInvalidPrice
	}
	amount, err := strconv.Atoi(digits)
	if err != nil {
		return 0, apperrors.ErrInvalidPrice
	}
	return amount, nil
}

// FormatPrice renders amount with the currency symbol and Indian digit grouping.
func FormatPrice(currency string, amount int) string {
	s := strconv.Itoa(amount)
	if len(s) > 3 {
		head, tail := s[:len(s)-3], s[len(s)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		s = strings.Join(append(groups, tail), ",")
	}
	return currencySymbol(currency) + s
}

func currencySymbol(currency string) string {
	switch strings.ToLower(currency) {
	case "inr":
		return "₹"
	case "usd":
		return "$"
	case "eur":
		return "€"
	case "gbp":
		return "£"
	}
	return strings.ToUpper(currency) + " "
}

// Offer is a subscription plan as listed on the pricing view.
type Offer struct {
	Plan  Plan
	Name  string
	Price string
}

// Offers lists the subscription plans with prices from cfg.
func Offers(cfg config.PricingConfig) []Offer {
	return []Offer{
		{Plan: PlanStandard, Name: "Standard", Price: FormatPrice(cfg.GetCurrency(), cfg.GetStandardPlanPrice())},
		{Plan: PlanPremium, Name: "Premium", Price: FormatPrice(cfg.GetCurrency(), cfg.GetPremiumPrice())},
	}
}
