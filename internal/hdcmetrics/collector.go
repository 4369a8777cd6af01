// Package hdcmetrics exposes a Prometheus hdc.Metrics implementation for
// the HDC device engine.
package hdcmetrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "gohdc"
	subsystem = "device"
)

// Label names for HDC metrics.
const (
	labelFeatureID  = "feature_id"
	labelCommandID  = "command_id"
	labelPropertyID = "property_id"
	labelEventID    = "event_id"
	labelExceptionID = "exception_id"
	labelFromState  = "from_state"
	labelToState    = "to_state"
)

// -------------------------------------------------------------------------
// Collector — Prometheus HDC Metrics
// -------------------------------------------------------------------------

// Collector holds all HDC Prometheus metrics and implements hdc.Metrics.
//
//   - FramingErrors counts bytes skipped while resynchronizing the RX stream.
//   - PacketsComposed counts reply messages (Command, Echo and Meta replies)
//     handed to the composer, one per message however many packets it
//     spans; events are counted by EventsEmitted instead.
//   - CommandsDispatched/Exceptions/PropertyGets/PropertySets/EventsEmitted
//     break down RPC traffic per feature.
//   - StateTransitions records FeatureState changes for alerting.
type Collector struct {
	FramingErrors     prometheus.Counter
	PacketsComposed   prometheus.Counter
	CommandsDispatched *prometheus.CounterVec
	Exceptions        *prometheus.CounterVec
	PropertyGets      *prometheus.CounterVec
	PropertySets      *prometheus.CounterVec
	EventsEmitted     *prometheus.CounterVec
	StateTransitions  *prometheus.CounterVec
}

// NewCollector creates a Collector with all HDC metrics registered against
// the provided prometheus.Registerer. If reg is nil,
// prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.FramingErrors,
		c.PacketsComposed,
		c.CommandsDispatched,
		c.Exceptions,
		c.PropertyGets,
		c.PropertySets,
		c.EventsEmitted,
		c.StateTransitions,
	)

	return c
}

func newMetrics() *Collector {
	featureCmdLabels := []string{labelFeatureID, labelCommandID}
	featurePropLabels := []string{labelFeatureID, labelPropertyID}
	featureEvtLabels := []string{labelFeatureID, labelEventID}
	transitionLabels := []string{labelFeatureID, labelFromState, labelToState}

	return &Collector{
		FramingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "framing_errors_total",
			Help:      "Total bytes skipped while resynchronizing the RX packet stream.",
		}),

		PacketsComposed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_composed_total",
			Help:      "Total reply messages (Command, Echo, Meta) handed to the TX composer.",
		}),

		CommandsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_dispatched_total",
			Help:      "Total Command requests dispatched, per feature and command id.",
		}, featureCmdLabels),

		Exceptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "exceptions_total",
			Help:      "Total Command replies carrying a non-zero exception id.",
		}, []string{labelExceptionID}),

		PropertyGets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "property_gets_total",
			Help:      "Total GetPropertyValue requests, per feature and property id.",
		}, featurePropLabels),

		PropertySets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "property_sets_total",
			Help:      "Total SetPropertyValue requests, per feature and property id.",
		}, featurePropLabels),

		EventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_emitted_total",
			Help:      "Total Event messages emitted, per feature and event id.",
		}, featureEvtLabels),

		StateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "state_transitions_total",
			Help:      "Total FeatureState transitions.",
		}, transitionLabels),
	}
}

// hexLabel formats an id byte the way the IDL and wire protocol address it.
func hexLabel(id uint8) string {
	return fmt.Sprintf("0x%02X", id)
}

// -------------------------------------------------------------------------
// hdc.Metrics implementation
// -------------------------------------------------------------------------

// FramingError implements hdc.Metrics.
func (c *Collector) FramingError() {
	c.FramingErrors.Inc()
}

// PacketComposed implements hdc.Metrics.
func (c *Collector) PacketComposed() {
	c.PacketsComposed.Inc()
}

// CommandDispatched implements hdc.Metrics.
func (c *Collector) CommandDispatched(featureID, cmdID uint8) {
	c.CommandsDispatched.WithLabelValues(hexLabel(featureID), hexLabel(cmdID)).Inc()
}

// Exception implements hdc.Metrics.
func (c *Collector) Exception(excID uint8) {
	c.Exceptions.WithLabelValues(hexLabel(excID)).Inc()
}

// PropertyGet implements hdc.Metrics.
func (c *Collector) PropertyGet(featureID, propID uint8) {
	c.PropertyGets.WithLabelValues(hexLabel(featureID), hexLabel(propID)).Inc()
}

// PropertySet implements hdc.Metrics.
func (c *Collector) PropertySet(featureID, propID uint8) {
	c.PropertySets.WithLabelValues(hexLabel(featureID), hexLabel(propID)).Inc()
}

// EventEmitted implements hdc.Metrics.
func (c *Collector) EventEmitted(featureID, eventID uint8) {
	c.EventsEmitted.WithLabelValues(hexLabel(featureID), hexLabel(eventID)).Inc()
}

// StateTransition implements hdc.Metrics.
func (c *Collector) StateTransition(featureID uint8, from, to uint8) {
	c.StateTransitions.WithLabelValues(hexLabel(featureID), hexLabel(from), hexLabel(to)).Inc()
}
