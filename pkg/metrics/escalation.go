package metrics

import "github.com/prometheus/client_golang/prometheus"

// EscalationMetrics exports the per-batch outcome counters of the
// escalation worker.
type EscalationMetrics struct {
	processed  prometheus.Counter
	reassigned prometheus.Counter
	onCall     prometheus.Counter
	errors     prometheus.Counter
}

// NewEscalationMetrics registers the escalation counters on the provided registerer.
func NewEscalationMetrics(reg prometheus.Registerer) *EscalationMetrics {
	if reg == nil {
		return &EscalationMetrics{}
	}
	processed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "escalation_assignments_processed_total",
		Help: "Expired assignments picked up by the escalation worker.",
	})
	reassigned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "escalation_leads_reassigned_total",
		Help: "Leads successfully re-routed after an SLA miss.",
	})
	onCall := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "escalation_leads_on_call_total",
		Help: "Leads that reached the on-call tier during re-routing.",
	})
	errors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "escalation_item_errors_total",
		Help: "Expired assignments whose processing failed and will retry.",
	})
	reg.MustRegister(processed, reassigned, onCall, errors)
	return &EscalationMetrics{
		processed:  processed,
		reassigned: reassigned,
		onCall:     onCall,
		errors:     errors,
	}
}

// AddProcessed increments the processed counter by n.
func (e *EscalationMetrics) AddProcessed(n int) {
	if e == nil || e.processed == nil {
		return
	}
	e.processed.Add(float64(n))
}

// AddReassigned increments the reassigned counter by n.
func (e *EscalationMetrics) AddReassigned(n int) {
	if e == nil || e.reassigned == nil {
		return
	}
	e.reassigned.Add(float64(n))
}

// AddRoutedToOnCall increments the on-call counter by n.
func (e *EscalationMetrics) AddRoutedToOnCall(n int) {
	if e == nil || e.onCall == nil {
		return
	}
	e.onCall.Add(float64(n))
}

// AddErrors increments the item error counter by n.
func (e *EscalationMetrics) AddErrors(n int) {
	if e == nil || e.errors == nil {
		return
	}
	e.errors.Add(float64(n))
}
