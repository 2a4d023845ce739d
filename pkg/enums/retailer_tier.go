package enums

import "fmt"

// RetailerTier groups wholesale buyers into pricing bands. Tier overrides
// are resolved against this value when an order line is priced.
type RetailerTier string

const (
	RetailerTierBasic    RetailerTier = "basic"
	RetailerTierSilver   RetailerTier = "silver"
	RetailerTierGold     RetailerTier = "gold"
	RetailerTierPlatinum RetailerTier = "platinum"
)

var validRetailerTiers = []RetailerTier{
	RetailerTierBasic,
	RetailerTierSilver,
	RetailerTierGold,
	RetailerTierPlatinum,
}

// String implements fmt.Stringer.
func (r RetailerTier) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RetailerTier.
func (r RetailerTier) IsValid() bool {
	for _, candidate := range validRetailerTiers {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRetailerTier converts raw input into a RetailerTier.
func ParseRetailerTier(value string) (RetailerTier, error) {
	for _, candidate := range validRetailerTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid retailer tier %q", value)
}
