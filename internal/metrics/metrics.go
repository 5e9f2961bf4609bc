package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/entity"
)

const namespace = "tictactoe"

// Metrics - prometheus collectors for the match coordinator.
type Metrics struct {
	Connections      prometheus.Gauge
	Rejections       prometheus.Counter
	MovesAccepted    prometheus.Counter
	MovesRejected    *prometheus.CounterVec
	MatchesFinished  *prometheus.CounterVec
	Resets           *prometheus.CounterVec
	ChatMessages     prometheus.Counter
	DroppedOutbounds prometheus.Counter
}

func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Number of open realtime connections",
		}),
		Rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_full_total",
			Help:      "Connections turned away because both seats were taken",
		}),
		MovesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_accepted_total",
			Help:      "Moves applied to the board",
		}),
		MovesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_rejected_total",
			Help:      "Moves refused by the rules, by reason",
		}, []string{"reason"}),
		MatchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_finished_total",
			Help:      "Finished matches by winner",
		}, []string{"winner"}),
		Resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Match resets by cause",
		}, []string{"cause"}),
		ChatMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages relayed",
		}),
		DroppedOutbounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_dropped_total",
			Help:      "Outbound events dropped because a connection could not keep up",
		}),
	}

	registerer.MustRegister(
		m.Connections,
		m.Rejections,
		m.MovesAccepted,
		m.MovesRejected,
		m.MatchesFinished,
		m.Resets,
		m.ChatMessages,
		m.DroppedOutbounds,
	)

	return m
}

func (that *Metrics) ConnectionOpened() {
	that.Connections.Inc()
}

func (that *Metrics) ConnectionClosed() {
	that.Connections.Dec()
}

func (that *Metrics) OutboundDropped() {
	that.DroppedOutbounds.Inc()
}

func (that *Metrics) RoomFull() {
	that.Rejections.Inc()
}

func (that *Metrics) MoveAccepted() {
	that.MovesAccepted.Inc()
}

func (that *Metrics) MoveRejected(err error) {
	that.MovesRejected.WithLabelValues(RejectReason(err)).Inc()
}

func (that *Metrics) MatchFinished(verdict entity.Verdict) {
	that.MatchesFinished.WithLabelValues(string(verdict)).Inc()
}

func (that *Metrics) MatchReset(cause string) {
	that.Resets.WithLabelValues(cause).Inc()
}

func (that *Metrics) ChatRelayed() {
	that.ChatMessages.Inc()
}

// RejectReason maps a rule error to a stable label value.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, apperror.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, apperror.ErrCellOccupied):
		return "cell_occupied"
	case errors.Is(err, apperror.ErrGameNotInProgress):
		return "game_not_in_progress"
	default:
		return "other"
	}
}
