package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rocketscienceinc/tictactoe-coordinator/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/entity"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/registry"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/tictactoe"
)

const (
	resetCauseRequest    = "request"
	resetCauseDisconnect = "disconnect"
	resetCauseAuto       = "auto"
)

type notifier interface {
	SendTo(id entity.Identity, action string, payload any)
	Broadcast(action string, payload any)
	Connections() []entity.Identity
}

type recorder interface {
	RoomFull()
	MoveAccepted()
	MoveRejected(err error)
	MatchFinished(verdict entity.Verdict)
	MatchReset(cause string)
	ChatRelayed()
}

type resultRepo interface {
	Record(ctx context.Context, verdict entity.Verdict) error
}

type Options struct {
	ResetDelay        time.Duration
	CountdownInterval time.Duration
	ChatLimit         int
	RecordTimeout     time.Duration
}

// State is a read-only view of the match for callers outside the controller.
type State struct {
	Game   entity.Game `json:"game"`
	Seated int         `json:"seated"`
}

// Controller owns the match and the seat registry. Every handler runs under
// one mutex, including the notifications it sends, so events apply one at a
// time in arrival order.
type Controller struct {
	logger   *slog.Logger
	notifier notifier
	metrics  recorder
	results  resultRepo
	opts     Options

	mu       sync.Mutex
	game     *entity.Game
	registry *registry.Registry
	pending  *time.Timer
	closed   bool
	wg       sync.WaitGroup

	handlers map[string]func(id entity.Identity, payload json.RawMessage) error
}

func NewController(logger *slog.Logger, notifier notifier, metrics recorder, results resultRepo, opts Options) *Controller {
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = 3 * time.Second
	}

	if opts.CountdownInterval <= 0 || opts.CountdownInterval > opts.ResetDelay {
		opts.CountdownInterval = opts.ResetDelay
	}

	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = 5 * time.Second
	}

	controller := &Controller{
		logger:   logger.With("component", "session"),
		notifier: notifier,
		metrics:  metrics,
		results:  results,
		opts:     opts,

		game:     entity.NewGame(),
		registry: registry.New(),

		handlers: make(map[string]func(entity.Identity, json.RawMessage) error),
	}

	controller.handlers[ActionMove] = controller.handleMove
	controller.handlers[ActionChat] = controller.handleChat
	controller.handlers[ActionRequestReset] = controller.handleRequestReset

	return controller
}

// OnConnect - seats a new identity or tells it the room is full.
func (that *Controller) OnConnect(id entity.Identity) error {
	log := that.logger.With("method", "OnConnect", "identity", id)

	that.mu.Lock()
	defer that.mu.Unlock()

	role, err := that.registry.Admit(id)
	if err != nil {
		that.metrics.RoomFull()
		that.notifier.SendTo(id, ActionFull, FullPayload{})
		log.Info("room is full, connection not seated")

		return fmt.Errorf("failed to admit: %w", err)
	}

	that.notifier.SendTo(id, ActionInit, InitPayload{RoleMark: string(role.Mark())})
	log.Info("player seated", "role", role)

	if that.registry.IsComplete() && that.game.IsWaiting() {
		that.game.Start()
		that.broadcastUpdate()
		log.Info("match started")
	}

	return nil
}

// OnMove - applies a move for the identity's role. Illegal moves change
// nothing and notify nobody.
func (that *Controller) OnMove(id entity.Identity, cell int) error {
	log := that.logger.With("method", "OnMove", "identity", id, "cell", cell)

	that.mu.Lock()
	defer that.mu.Unlock()

	role, ok := that.registry.RoleOf(id)
	if !ok {
		log.Debug("move from unseated identity ignored")
		return apperror.ErrUnknownIdentity
	}

	if err := tictactoe.ApplyMove(that.game, role, cell); err != nil {
		that.metrics.MoveRejected(err)
		log.Debug("move rejected", "role", role, "error", err)

		return fmt.Errorf("failed to apply move: %w", err)
	}

	that.metrics.MoveAccepted()
	that.broadcastUpdate()

	if that.game.IsFinished() {
		that.finish()
	}

	return nil
}

// OnResetRequest - clears the board at a seated player's request.
func (that *Controller) OnResetRequest(id entity.Identity) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.registry.RoleOf(id); !ok {
		return apperror.ErrUnknownIdentity
	}

	that.reset(resetCauseRequest)

	return nil
}

// OnDisconnect - frees the identity's seat and restarts the match for
// whoever remains. Unseated identities leave without side effects.
func (that *Controller) OnDisconnect(id entity.Identity) error {
	log := that.logger.With("method", "OnDisconnect", "identity", id)

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.registry.RoleOf(id); !ok {
		log.Debug("unseated identity left")
		return nil
	}

	that.registry.Release(id)
	that.reset(resetCauseDisconnect)
	log.Info("player left, match reset")

	return nil
}

// OnChat - relays a seated player's message to every connection.
func (that *Controller) OnChat(id entity.Identity, text string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	role, ok := that.registry.RoleOf(id)
	if !ok {
		return apperror.ErrUnknownIdentity
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty chat message", apperror.ErrMalformedPayload)
	}

	that.metrics.ChatRelayed()
	that.notifier.Broadcast(ActionChat, ChatPayload{
		RoleMark: string(role.Mark()),
		Text:     truncate(text, that.opts.ChatLimit),
	})

	return nil
}

// State returns a copy of the match.
func (that *Controller) State() State {
	that.mu.Lock()
	defer that.mu.Unlock()

	return State{
		Game:   that.game.Snapshot(),
		Seated: len(that.registry.Players()),
	}
}

// Close stops the pending auto-reset and waits for result writes in flight.
func (that *Controller) Close() {
	that.mu.Lock()
	that.closed = true
	that.cancelPending()
	that.mu.Unlock()

	that.wg.Wait()
}

// finish announces the verdict and schedules the automatic reset.
func (that *Controller) finish() {
	verdict := that.game.Winner

	that.metrics.MatchFinished(verdict)
	that.notifier.Broadcast(ActionGameOver, GameOverPayload{Winner: string(verdict)})
	that.logger.Info("match finished", "winner", verdict)

	that.recordResult(verdict)

	steps := that.countdownSteps()
	that.notifier.Broadcast(ActionCountdown, CountdownPayload{Seconds: steps})
	that.schedule(that.game.Generation, steps-1)
}

// countdownSteps rounds up so a partial interval still gets its own step.
func (that *Controller) countdownSteps() int {
	interval := that.opts.CountdownInterval

	return int((that.opts.ResetDelay + interval - 1) / interval)
}

// schedule arms the next countdown step for the given generation. The step
// that resets takes whatever is left of the delay.
func (that *Controller) schedule(generation uint64, remaining int) {
	if that.closed {
		return
	}

	delay := that.opts.CountdownInterval
	if remaining <= 0 {
		delay = that.opts.ResetDelay - time.Duration(that.countdownSteps()-1)*that.opts.CountdownInterval
	}

	that.pending = time.AfterFunc(delay, func() {
		that.tick(generation, remaining)
	})
}

func (that *Controller) tick(generation uint64, remaining int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	// a reset since scheduling makes this step stale
	if that.closed || that.game.Generation != generation || !that.game.IsFinished() {
		return
	}

	if remaining <= 0 {
		that.reset(resetCauseAuto)
		return
	}

	that.notifier.Broadcast(ActionCountdown, CountdownPayload{Seconds: remaining})
	that.schedule(generation, remaining-1)
}

func (that *Controller) cancelPending() {
	if that.pending != nil {
		that.pending.Stop()
		that.pending = nil
	}
}

// reset clears the match and tells every connection its role afterwards.
func (that *Controller) reset(cause string) {
	that.cancelPending()
	that.game.Reset(that.registry.IsComplete())
	that.metrics.MatchReset(cause)

	for _, id := range that.notifier.Connections() {
		role, _ := that.registry.RoleOf(id)
		that.notifier.SendTo(id, ActionReset, ResetPayload{RoleMark: entity.MarkPtr(role)})
	}

	that.logger.Info("match reset", "cause", cause, "phase", that.game.Phase)
}

func (that *Controller) broadcastUpdate() {
	that.notifier.Broadcast(ActionUpdate, UpdatePayload{
		Cells:    that.game.Cells(),
		TurnMark: string(that.game.Turn.Mark()),
	})
}

func (that *Controller) recordResult(verdict entity.Verdict) {
	log := that.logger.With("method", "recordResult")

	if that.closed {
		log.Warn("controller closed, match result not recorded", "winner", verdict)
		return
	}

	that.wg.Add(1)
	go func() {
		defer that.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), that.opts.RecordTimeout)
		defer cancel()

		if err := that.results.Record(ctx, verdict); err != nil {
			log.Error("failed to record match result", "winner", verdict, "error", err)
		}
	}()
}

func truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	return string([]rune(text)[:limit])
}
