package enums

import "fmt"

// FulfillmentEvent names a delivery milestone recorded against a confirmed
// order. Milestones are timeline entries, not order statuses; delivered also
// completes the order.
type FulfillmentEvent string

const (
	FulfillmentEventPacked         FulfillmentEvent = "packed"
	FulfillmentEventOutForDelivery FulfillmentEvent = "out_for_delivery"
	FulfillmentEventDelivered      FulfillmentEvent = "delivered"
)

var validFulfillmentEvents = []FulfillmentEvent{
	FulfillmentEventPacked,
	FulfillmentEventOutForDelivery,
	FulfillmentEventDelivered,
}

// String implements fmt.Stringer.
func (f FulfillmentEvent) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentEvent.
func (f FulfillmentEvent) IsValid() bool {
	for _, candidate := range validFulfillmentEvents {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFulfillmentEvent converts raw input into a FulfillmentEvent.
func ParseFulfillmentEvent(value string) (FulfillmentEvent, error) {
	for _, candidate := range validFulfillmentEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment event %q", value)
}
