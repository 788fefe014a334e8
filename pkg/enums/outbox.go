package enums

// OutboxAggregateType is the kind of row an outbox event describes.
// Values mirror the aggregate_type_enum Postgres type.
type OutboxAggregateType string

const (
	AggregateDesign        OutboxAggregateType = "design"
	AggregateVendorProduct OutboxAggregateType = "vendor_product"
	AggregateNotification  OutboxAggregateType = "notification"
)

func (a OutboxAggregateType) String() string { return string(a) }

func (a OutboxAggregateType) IsValid() bool {
	switch a {
	case AggregateDesign, AggregateVendorProduct, AggregateNotification:
		return true
	}
	return false
}

// OutboxEventType selects the payload decoder and the destination topic.
// Values mirror the event_type_enum Postgres type.
type OutboxEventType string

const (
	EventNotificationRequested OutboxEventType = "notification_requested"
)

func (e OutboxEventType) String() string { return string(e) }

func (e OutboxEventType) IsValid() bool {
	return e == EventNotificationRequested
}
