package config

type PricingConfig interface {
	GetCurrency() string
	GetCoursePrice() int
	GetPremiumPrice() int
	GetStandardPlanPrice() int
}

// Pricing amounts are whole currency units, as the payments backend expects.
type Pricing struct {
	Currency          string `yaml:"currency" env:"PORTAL_CURRENCY" env-default:"inr"`
	CoursePrice       int    `yaml:"course_price" env:"PORTAL_COURSE_PRICE" env-default:"499"`
	PremiumPrice      int    `yaml:"premium_price" env:"PORTAL_PREMIUM_PRICE" env-default:"19999"`
	StandardPlanPrice int    `yaml:"standard_plan_price" env:"PORTAL_STANDARD_PLAN_PRICE" env-default:"9999"`
}

var _ PricingConfig = Pricing{}

func (p Pricing) GetCurrency() string {
	return p.Currency
}

func (p Pricing) GetCoursePrice() int {
	return p.CoursePrice
}

func (p Pricing) GetPremiumPrice() int {
	return p.PremiumPrice
}

func (p Pricing) GetStandardPlanPrice() int {
	return p.StandardPlanPrice
}
