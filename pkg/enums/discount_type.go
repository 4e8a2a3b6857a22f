package enums

// DiscountType is how a coupon's value is applied.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeAmount     DiscountType = "amount"
)

var discountTypes = set[DiscountType]{DiscountTypePercentage, DiscountTypeAmount}

func (d DiscountType) IsValid() bool { return discountTypes.has(d) }

func ParseDiscountType(value string) (DiscountType, error) {
	return discountTypes.parse("discount type", value)
}
