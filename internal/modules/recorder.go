package modules

import (
	"time"

	"github.com/google/uuid"

	"github.com/fates3gx/sdk/internal/bus"
	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/pkg/core"
)

// Sink accepts finished map summaries. Implementations must not block the
// calling hook thread.
type Sink interface {
	Submit(s core.MapSummary) bool
}

// Recorder assembles a MapSummary from the stats modules when a map ends.
// It must be registered after the modules it reads.
type Recorder struct {
	logger    diag.Logger
	sink      Sink
	set       *Set
	sessionID string
	now       func() time.Time

	startedAt time.Time
	turns     [core.SideCount]uint32
	dropped   uint32
}

// NewRecorder returns a recorder reading from set. An empty sessionID gets a
// fresh random one.
func NewRecorder(sessionID string, sink Sink, set *Set, logger diag.Logger) *Recorder {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &Recorder{
		logger:    diag.OrNop(logger),
		sink:      sink,
		set:       set,
		sessionID: sessionID,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *Recorder) Name() string { return "recorder" }

// SessionID returns the identifier stamped on every summary.
func (r *Recorder) SessionID() string { return r.sessionID }

// Dropped returns the number of summaries the sink refused.
func (r *Recorder) Dropped() uint32 { return r.dropped }

func (r *Recorder) Register(b *bus.Bus) bool {
	return registerAll(
		b.RegisterMapBeginHandler(r.onMapBegin),
		b.RegisterTurnBeginHandler(r.onTurnBegin),
		b.RegisterMapEndHandler(r.onMapEnd),
	)
}

func (r *Recorder) onMapBegin(core.MapContext) {
	r.startedAt = r.now()
	r.turns = [core.SideCount]uint32{}
}

func (r *Recorder) onTurnBegin(tc core.TurnContext) {
	if tc.Side.Valid() {
		r.turns[tc.Side] = tc.SideTurnIndex
	}
}

func (r *Recorder) onMapEnd(c core.MapEndContext) {
	s := r.Build(c)
	if !r.sink.Submit(s) {
		r.dropped++
		r.logger.Warn("map summary dropped", "gen", s.Generation, "dropped", r.dropped)
		return
	}
	r.logger.Debug("map summary submitted", "gen", s.Generation, "session", r.sessionID)
}

// Build assembles the summary for the map described by c.
func (r *Recorder) Build(c core.MapEndContext) core.MapSummary {
	s := core.MapSummary{
		SessionID:  r.sessionID,
		Generation: c.Map.Generation,
		SeqRoot:    c.Map.SeqRoot,
		StartSide:  c.Map.StartSide,
		EndSide:    c.Side,
		TotalTurns: c.Map.TotalTurns,
		KillEvents: c.Map.KillEvents,
		StartedAt:  r.startedAt,
		EndedAt:    r.now(),
		Sides:      make([]core.SideSummary, 0, core.SideCount),
	}

	_, kills := r.set.HpKill.Kills()
	for i := range core.SideCount {
		side := core.TurnSide(i)
		hp, _ := r.set.HpKill.SideStats(side)
		hit := r.set.Hit.Side(side)
		s.Sides = append(s.Sides, core.SideSummary{
			Side:        side,
			Turns:       r.turns[i],
			Kills:       kills[i],
			HpEvents:    r.set.Damage.Side(side).HpEvents,
			DamageDealt: hp.DamageDealt,
			HealingDone: hp.HealingDone,
			RngCalls:    r.set.Rng.Calls(side),
			HitAttempts: hit.Attempts,
			Hits:        hit.Hits,
		})
	}

	for _, u := range r.set.HpKill.UnitStats() {
		s.Units = append(s.Units, core.UnitSummary{
			Unit:            u.Unit,
			DamageTaken:     u.DamageTaken,
			HealingReceived: u.HealingReceived,
		})
	}
	return s
}
