package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ordersCreatedTotal,
		saleListingsCreatedTotal,
		flowTransitionsTotal,
	)
}

var (
	ordersCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealer_orders_created_total",
			Help: "Orders recorded from the bot, by outcome (created, vehicle_missing).",
		},
		[]string{"outcome"},
	)

	saleListingsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dealer_sale_listings_created_total",
			Help: "Sell-my-car requests recorded from the bot.",
		},
	)

	flowTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealer_flow_events_total",
			Help: "Conversation flow events (start, complete, cancel, reset, replace).",
		},
		[]string{"flow", "event"},
	)
)

// IncOrder counts an order completion with the given outcome.
func IncOrder(outcome string) {
	ordersCreatedTotal.WithLabelValues(norm(outcome)).Inc()
}

// IncSaleListing counts a stored sale listing request.
func IncSaleListing() {
	saleListingsCreatedTotal.Inc()
}

// IncFlowEvent counts a flow lifecycle event.
func IncFlowEvent(flow, event string) {
	flowTransitionsTotal.WithLabelValues(norm(flow), norm(event)).Inc()
}
