package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wholesalehub"

// Domain holds the business counters shared by the order, invoice and payment services.
// All methods are safe on a nil receiver.
type Domain struct {
	ordersPlaced    prometheus.Counter
	orderRejections *prometheus.CounterVec
	invoicesIssued  prometheus.Counter
	paymentChecks   *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
}

// NewDomain registers the business counters on reg.
func NewDomain(reg prometheus.Registerer) *Domain {
	if reg == nil {
		return nil
	}
	d := &Domain{
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders committed with their stock reservations.",
		}),
		orderRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_rejections_total",
			Help:      "Order placements rejected before commit, by error code.",
		}, []string{"code"}),
		invoicesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_issued_total",
			Help:      "Invoices created for orders.",
		}),
		paymentChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verifications_total",
			Help:      "Payment verification attempts, by outcome.",
		}, []string{"outcome"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_total",
			Help:      "Outbox publish attempts, by event type and result.",
		}, []string{"event_type", "result"}),
	}
	reg.MustRegister(d.ordersPlaced, d.orderRejections, d.invoicesIssued, d.paymentChecks, d.eventsPublished)
	return d
}

func (d *Domain) OrderPlaced() {
	if d == nil {
		return
	}
	d.ordersPlaced.Inc()
}

func (d *Domain) OrderRejected(code string) {
	if d == nil {
		return
	}
	d.orderRejections.WithLabelValues(normalizeLabel(code)).Inc()
}

func (d *Domain) InvoiceIssued() {
	if d == nil {
		return
	}
	d.invoicesIssued.Inc()
}

// PaymentVerification outcomes are "verified", "replayed" and "rejected".
func (d *Domain) PaymentVerification(outcome string) {
	if d == nil {
		return
	}
	d.paymentChecks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (d *Domain) EventPublished(eventType, result string) {
	if d == nil {
		return
	}
	d.eventsPublished.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}
