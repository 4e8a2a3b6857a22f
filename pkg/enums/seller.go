package enums

// SellerStatus is the moderation state of a seller account.
type SellerStatus string

const (
	SellerStatusPending  SellerStatus = "Pending"
	SellerStatusApproved SellerStatus = "Approved"
	SellerStatusRejected SellerStatus = "Rejected"
)

var sellerStatuses = set[SellerStatus]{SellerStatusPending, SellerStatusApproved, SellerStatusRejected}

func (s SellerStatus) String() string { return string(s) }

func (s SellerStatus) IsValid() bool { return sellerStatuses.has(s) }

// BusinessType describes what kind of vendor a seller is.
type BusinessType string

const (
	BusinessTypeLocalVendor BusinessType = "Local Vendor"
	BusinessTypeFarmer      BusinessType = "Farmer"
	BusinessTypeWholesaler  BusinessType = "Wholesaler"
)

var businessTypes = set[BusinessType]{BusinessTypeLocalVendor, BusinessTypeFarmer, BusinessTypeWholesaler}

func (b BusinessType) String() string { return string(b) }

func (b BusinessType) IsValid() bool { return businessTypes.has(b) }

func ParseBusinessType(value string) (BusinessType, error) {
	return businessTypes.parse("business type", value)
}
