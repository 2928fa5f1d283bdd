package fulfillment

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusDraft               OrderStatus = "draft"
	OrderStatusSubmitted           OrderStatus = "submitted"
	OrderStatusInReview            OrderStatus = "in_review"
	OrderStatusConfirmed           OrderStatus = "confirmed"
	OrderStatusInvoiced            OrderStatus = "invoiced"
	OrderStatusPaid                OrderStatus = "paid"
	OrderStatusPicking             OrderStatus = "picking"
	OrderStatusPicked              OrderStatus = "picked"
	OrderStatusPartiallyPacked     OrderStatus = "partially_packed"
	OrderStatusPacked              OrderStatus = "packed"
	OrderStatusReadyToShip         OrderStatus = "ready_to_ship"
	OrderStatusPartiallyDispatched OrderStatus = "partially_dispatched"
	OrderStatusDispatched          OrderStatus = "dispatched"
	OrderStatusPartiallyDelivered  OrderStatus = "partially_delivered"
	OrderStatusDelivered           OrderStatus = "delivered"
	OrderStatusCancelled           OrderStatus = "cancelled"
)

// warehouseStatuses may move between each other in either direction
var warehouseStatuses = []OrderStatus{
	OrderStatusPicking,
	OrderStatusPicked,
	OrderStatusPartiallyPacked,
	OrderStatusPacked,
}

// orderTransitions lists the legal successors of each non-terminal status.
// cancelled is added for every non-terminal status by CanTransitionTo.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:     {OrderStatusSubmitted},
	OrderStatusSubmitted: {OrderStatusInReview, OrderStatusConfirmed, OrderStatusInvoiced},
	OrderStatusInReview:  {OrderStatusConfirmed, OrderStatusInvoiced},
	OrderStatusConfirmed: {
		OrderStatusInvoiced, OrderStatusPaid,
		OrderStatusPicking, OrderStatusPicked, OrderStatusPartiallyPacked, OrderStatusPacked,
		OrderStatusReadyToShip, OrderStatusDispatched,
	},
	OrderStatusInvoiced: {
		OrderStatusConfirmed, OrderStatusPaid,
		OrderStatusPicking, OrderStatusPicked, OrderStatusPartiallyPacked, OrderStatusPacked,
		OrderStatusReadyToShip, OrderStatusDispatched,
	},
	OrderStatusPaid: {
		OrderStatusInvoiced,
		OrderStatusPicking, OrderStatusPicked, OrderStatusPartiallyPacked, OrderStatusPacked,
		OrderStatusReadyToShip,
	},
	OrderStatusPicking:         {OrderStatusPicked, OrderStatusPartiallyPacked, OrderStatusPacked},
	OrderStatusPicked:          {OrderStatusPicking, OrderStatusPartiallyPacked, OrderStatusPacked, OrderStatusInvoiced},
	OrderStatusPartiallyPacked: {OrderStatusPicking, OrderStatusPicked, OrderStatusPacked},
	OrderStatusPacked: {
		OrderStatusPicking, OrderStatusPicked,
		OrderStatusReadyToShip, OrderStatusInvoiced,
		OrderStatusPartiallyDispatched, OrderStatusDispatched,
	},
	OrderStatusReadyToShip:         {OrderStatusInvoiced, OrderStatusPartiallyDispatched, OrderStatusDispatched},
	OrderStatusPartiallyDispatched: {OrderStatusDispatched, OrderStatusPartiallyDelivered},
	OrderStatusDispatched:          {OrderStatusPartiallyDelivered, OrderStatusDelivered},
	OrderStatusPartiallyDelivered:  {OrderStatusDelivered},
}

// IsValid checks if the status is a known OrderStatus
func (s OrderStatus) IsValid() bool {
	if s == OrderStatusDelivered || s == OrderStatusCancelled {
		return true
	}
	_, ok := orderTransitions[s]
	return ok
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsWarehouseStatus reports whether s is one of the statuses derived from warehouse tasks
func (s OrderStatus) IsWarehouseStatus() bool {
	for _, w := range warehouseStatuses {
		if s == w {
			return true
		}
	}
	return false
}

// CanTransitionTo checks if the status can move to target
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() || !s.IsValid() || s == target {
		return false
	}
	if target == OrderStatusCancelled {
		return true
	}
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Predecessors returns every status from which target is reachable in one step
func Predecessors(target OrderStatus) []OrderStatus {
	var out []OrderStatus
	for _, s := range AllOrderStatuses() {
		if s.CanTransitionTo(target) {
			out = append(out, s)
		}
	}
	return out
}

// AllOrderStatuses returns every status in lifecycle order
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusDraft,
		OrderStatusSubmitted,
		OrderStatusInReview,
		OrderStatusConfirmed,
		OrderStatusInvoiced,
		OrderStatusPaid,
		OrderStatusPicking,
		OrderStatusPicked,
		OrderStatusPartiallyPacked,
		OrderStatusPacked,
		OrderStatusReadyToShip,
		OrderStatusPartiallyDispatched,
		OrderStatusDispatched,
		OrderStatusPartiallyDelivered,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}
