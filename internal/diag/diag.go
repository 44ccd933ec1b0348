// Package diag holds the diagnostic sink contract shared by the engine
// packages and the rate limits placed in front of it.
package diag

// Logger is a leveled, key/value diagnostic sink. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop{}
	}
	return l
}

// Limiter caps how many diagnostics one event family emits per map
// generation. The counter restarts whenever the observed generation changes.
type Limiter struct {
	limit uint32
	gen   uint32
	count uint32
}

// NewLimiter returns a limiter allowing limit messages per generation.
func NewLimiter(limit uint32) *Limiter {
	return &Limiter{limit: limit}
}

// Allow reports whether one more message may be emitted for gen, and
// consumes a slot if so.
func (l *Limiter) Allow(gen uint32) bool {
	if gen != l.gen {
		l.gen = gen
		l.count = 0
	}
	if l.count >= l.limit {
		return false
	}
	l.count++
	return true
}

// Count returns the messages emitted for the current generation.
func (l *Limiter) Count() uint32 { return l.count }

// Budget is a process-lifetime cap with no generation reset.
type Budget struct {
	limit uint32
	used  uint32
}

// NewBudget returns a budget of limit messages.
func NewBudget(limit uint32) *Budget {
	return &Budget{limit: limit}
}

// Take consumes one message if any remain.
func (b *Budget) Take() bool {
	if b.used >= b.limit {
		return false
	}
	b.used++
	return true
}

// Used returns the number of messages consumed so far.
func (b *Budget) Used() uint32 { return b.used }
