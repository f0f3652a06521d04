package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/hangman-rooms/internal"
)

// =============================================================================
// ENGINE - PER-ROOM TICK LOOP
// =============================================================================

// Notifier receives everything the tick loop publishes.
type Notifier interface {
	GameState(snap Snapshot)
	ReturnToLobby(recipients []string)
	Ranking(recipients []string, text string)
	RoomsChanged()
}

// Recorder stores finished rounds. It is optional.
type Recorder interface {
	RecordRound(ctx context.Context, record internal.RoundRecord) error
}

type EngineConfig struct {
	Notifier     Notifier
	Recorder     Recorder
	Words        WordPicker
	TickInterval time.Duration
	SettleDelay  time.Duration
	Now          func() time.Time
}

// Engine runs one goroutine per playing room until its round ends.
type Engine struct {
	notifier Notifier
	recorder Recorder
	words    WordPicker
	tick     time.Duration
	settle   time.Duration
	now      func() time.Time
	reopened func(room *Room)

	ctx context.Context
	wg  sync.WaitGroup
}

func NewEngine(ctx context.Context, cfg EngineConfig) *Engine {
	e := &Engine{
		notifier: cfg.Notifier,
		recorder: cfg.Recorder,
		words:    cfg.Words,
		tick:     cfg.TickInterval,
		settle:   cfg.SettleDelay,
		now:      cfg.Now,
		ctx:      ctx,
	}
	if e.tick <= 0 {
		e.tick = internal.DefaultTickInterval
	}
	if e.settle < 0 {
		e.settle = internal.DefaultSettleDelay
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// OnReopen registers fn to run each time a finished room is back in Waiting.
// It must be set before the first round starts.
func (e *Engine) OnReopen(fn func(room *Room)) {
	e.reopened = fn
}

func (e *Engine) Now() time.Time {
	return e.now()
}

// StartRound starts a round requested by the room owner and launches its loop.
func (e *Engine) StartRound(room *Room, requesterID string) error {
	if err := room.Start(requesterID, e.words, e.now()); err != nil {
		return err
	}
	e.launch(room)
	return nil
}

// StartRematch starts a round that every member marked themselves ready for.
func (e *Engine) StartRematch(room *Room) error {
	if err := room.Rematch(e.words, e.now()); err != nil {
		return err
	}
	e.launch(room)
	return nil
}

// Resync re-sends the current snapshot of a playing room.
func (e *Engine) Resync(room *Room) {
	room.sendMu.Lock()
	defer room.sendMu.Unlock()

	if snap, ok := room.Snapshot(e.now()); ok {
		e.notifier.GameState(snap)
	}
}

// Wait blocks until every room loop has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) launch(room *Room) {
	e.notifier.RoomsChanged()

	e.wg.Add(1)
	go e.loop(room)
}

func (e *Engine) loop(room *Room) {
	defer e.wg.Done()

	log.Debug().Str("room", room.Name).Dur("tick", e.tick).Msg("[RoundLoop] Loop started")
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		room.sendMu.Lock()
		snap, record, done := room.tick(e.now())
		e.notifier.GameState(snap)
		room.sendMu.Unlock()

		if done {
			e.finish(room, snap.Recipients, record)
			return
		}

		select {
		case <-e.ctx.Done():
			log.Info().Str("room", room.Name).Msg("[RoundLoop] Shutting down mid-round")
			room.reset()
			return
		case <-ticker.C:
		}
	}
}

func (e *Engine) finish(room *Room, recipients []string, record internal.RoundRecord) {
	e.notifier.ReturnToLobby(recipients)

	if e.settle > 0 {
		select {
		case <-e.ctx.Done():
		case <-time.After(e.settle):
		}
	}

	e.notifier.Ranking(room.MemberIDs(), FormatRanking(record.Standings))
	room.reset()
	e.notifier.RoomsChanged()
	if e.reopened != nil {
		e.reopened(room)
	}

	if e.recorder != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(e.ctx), 5*time.Second)
		defer cancel()
		if err := e.recorder.RecordRound(ctx, record); err != nil {
			log.Error().Err(err).Str("room", room.Name).Int("round", record.Round).
				Msg("[RoundLoop] Failed to record round")
		}
	}
	log.Debug().Str("room", room.Name).Msg("[RoundLoop] Loop finished")
}
