// Package audit keeps the append-only ledger of thought signatures that
// accompanies every planning and diagnosis operation.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

// Sink receives every signature after it is appended to the ledger.
type Sink interface {
	AppendSignature(sig sentinel.ThoughtSignature) error
}

// Ledger is an in-memory, append-only list of thought signatures. Records are
// never mutated or removed.
type Ledger struct {
	mu      sync.Mutex
	records []sentinel.ThoughtSignature
	sink    Sink
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSink mirrors appended signatures to sink. Sink failures are logged and
// do not affect the in-memory ledger.
func WithSink(sink Sink) Option {
	return func(l *Ledger) { l.sink = sink }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates an empty ledger.
func NewLedger(logger zerolog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		now:    time.Now,
		logger: logger.With().Str("component", "audit_ledger").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateSignature appends a new record and returns it. The ID is
// SIG-<HHMMSS UTC>-<position>, with the position zero-padded to three digits,
// so IDs are unique for the ledger's lifetime. They are not sortable: the time
// part wraps at midnight and positions past 999 gain a digit. Order records by
// their position in Signatures, or by Timestamp.
func (l *Ledger) CreateSignature(reasoning, action, verification string, risk sentinel.RiskLevel, tokens int) sentinel.ThoughtSignature {
	l.mu.Lock()
	ts := l.now().UTC()
	sig := sentinel.ThoughtSignature{
		ID:                 fmt.Sprintf("SIG-%s-%03d", ts.Format("150405"), len(l.records)),
		Timestamp:          ts,
		ReasoningStep:      reasoning,
		ActionTaken:        action,
		VerificationMethod: verification,
		RiskLevel:          risk,
		ContextTokensUsed:  tokens,
	}
	l.records = append(l.records, sig)
	sink := l.sink
	l.mu.Unlock()

	l.logger.Debug().
		Str("signature", sig.ID).
		Str("risk", string(risk)).
		Int("tokens", tokens).
		Msg("Thought signature recorded")

	if sink != nil {
		if err := sink.AppendSignature(sig); err != nil {
			l.logger.Warn().Err(err).Str("signature", sig.ID).Msg("Failed to persist thought signature")
		}
	}
	return sig
}

// Signatures returns a copy of the ledger in append order.
func (l *Ledger) Signatures() []sentinel.ThoughtSignature {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]sentinel.ThoughtSignature, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
