package core

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RoundType is one of the five fixed negotiation phases. The debate protocol
// derives it from the session turn counter (turn mod 5).
type RoundType int

const (
	// RoundPosition opens (or re-states) a participant's stance.
	RoundPosition RoundType = iota + 1
	// RoundCounterPosition challenges the positions on the table.
	RoundCounterPosition
	// RoundSynthesis attempts to reconcile, or sharpens divergence.
	RoundSynthesis
	// RoundReflectiveSummary steps back and summarizes the exchange.
	RoundReflectiveSummary
	// RoundConsensusVote signals acceptance or rejection of the emerging view.
	RoundConsensusVote
)

// RoundForTurn maps a 1-based turn counter to its round type.
func RoundForTurn(turn int) RoundType {
	switch turn % 5 {
	case 1:
		return RoundPosition
	case 2:
		return RoundCounterPosition
	case 3:
		return RoundSynthesis
	case 4:
		return RoundReflectiveSummary
	default: // 0
		return RoundConsensusVote
	}
}

// String returns the human-readable round name used in logs and prompts.
func (r RoundType) String() string {
	switch r {
	case RoundPosition:
		return "Position"
	case RoundCounterPosition:
		return "Counter-Position"
	case RoundSynthesis:
		return "Synthesis"
	case RoundReflectiveSummary:
		return "Reflective Summary"
	case RoundConsensusVote:
		return "Consensus Vote"
	default:
		return "Unknown"
	}
}

// SessionStatus tracks a negotiation session's lifecycle. Transitions are
// one-directional toward a terminal concluded* state; regressions are
// rejected by SetStatus.
type SessionStatus string

const (
	// SessionActive is the initial state before the first scored round.
	SessionActive SessionStatus = "active"
	// SessionAwaitingTurns marks a session mid-negotiation.
	SessionAwaitingTurns SessionStatus = "awaiting_turns"
	// SessionConcluded marks natural exhaustion of all turn budgets.
	SessionConcluded SessionStatus = "concluded"
	// SessionConcludedByMaxTurns marks the global turn ceiling being hit.
	SessionConcludedByMaxTurns SessionStatus = "concluded_by_max_turns"
	// SessionConcludedByConvergence marks an early convergence exit.
	SessionConcludedByConvergence SessionStatus = "concluded_by_convergence"
)

// Terminal reports whether the status is one of the concluded states.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionConcluded, SessionConcludedByMaxTurns, SessionConcludedByConvergence:
		return true
	default:
		return false
	}
}

// Outcome labels assigned when a session concludes.
const (
	OutcomePseudoConsensus = "Pseudo-Consensus Achieved"
	OutcomeDivergent       = "Divergent but Productive"
	OutcomeEntanglement    = "Cognitive Entanglement Formed"
	OutcomeStalemate       = "Stalemate"
)

// Turn is one utterance in the negotiation log.
type Turn struct {
	Index     int       `json:"turn_index"`
	EntityID  string    `json:"entity_id"`
	Round     RoundType `json:"round_type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ParticipantState is the per-participant bookkeeping a session keeps:
// the participant itself, how many turns it has consumed, and a short
// memory log of what it said.
type ParticipantState struct {
	Participant *Participant `json:"participant"`
	TurnsTaken  int          `json:"turns_taken"`
	MemoryLog   []string     `json:"memory_log,omitempty"`
}

// Session is a structured multi-party negotiation. It is safe for concurrent
// reads while a single driver advances it; all mutation goes through methods
// holding the internal mutex.
//
// Contract:
//   - CurrentTurn is monotonically non-decreasing
//   - Status transitions are one-directional toward a terminal state
//   - Log and participant snapshots returned by accessors are defensive copies
type Session struct {
	ID                     string
	Topic                  string
	MaxTurnsPerParticipant int
	MaxTotalTurns          int

	mu                  sync.RWMutex
	participants        map[string]*ParticipantState
	log                 []Turn
	status              SessionStatus
	currentTurn         int
	convergenceScore    float64
	divergenceIntensity float64
	entanglement        map[string]struct{} // "idA|idB" with idA < idB
	outcomeLabel        string
	cancelReason        string
}

// NewSession creates an active session for the topic with the given budgets.
func NewSession(topic string, maxPerParticipant, maxTotal int) *Session {
	return &Session{
		ID:                     uuid.NewString(),
		Topic:                  topic,
		MaxTurnsPerParticipant: maxPerParticipant,
		MaxTotalTurns:          maxTotal,
		participants:           map[string]*ParticipantState{},
		status:                 SessionActive,
		entanglement:           map[string]struct{}{},
	}
}

// AddParticipant registers a participant. Rejected once the session has left
// the active state, except for mediators which may join mid-negotiation.
func (s *Session) AddParticipant(p *Participant, allowMidSession bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return fmt.Errorf("session %s already %s", s.ID, s.status)
	}
	if !allowMidSession && s.status != SessionActive {
		return fmt.Errorf("session %s no longer accepts participants", s.ID)
	}
	if _, ok := s.participants[p.ID()]; ok {
		return fmt.Errorf("participant %s already present", p.ID())
	}
	s.participants[p.ID()] = &ParticipantState{Participant: p}
	return nil
}

// Participants returns a snapshot of the participant states.
func (s *Session) Participants() map[string]ParticipantState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]ParticipantState, len(s.participants))
	for id, st := range s.participants {
		cp := *st
		cp.MemoryLog = append([]string(nil), st.MemoryLog...)
		out[id] = cp
	}
	return out
}

// ParticipantIDs returns the participant ids in sorted order.
func (s *Session) ParticipantIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.participants))
	for id := range s.participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TurnsTaken returns the turn count consumed by one participant.
func (s *Session) TurnsTaken(participantID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.participants[participantID]; ok {
		return st.TurnsTaken
	}
	return 0
}

// AppendTurn records an utterance, advances the monotonic turn counter and
// charges the speaker's budget. Returns the recorded turn.
func (s *Session) AppendTurn(participantID string, round RoundType, content string) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return Turn{}, fmt.Errorf("session %s already %s", s.ID, s.status)
	}
	st, ok := s.participants[participantID]
	if !ok {
		return Turn{}, &NotFoundError{Kind: "entity", ID: participantID}
	}
	s.currentTurn++
	t := Turn{
		Index:     s.currentTurn,
		EntityID:  participantID,
		Round:     round,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	s.log = append(s.log, t)
	st.TurnsTaken++
	st.MemoryLog = append(st.MemoryLog, content)
	return t, nil
}

// CurrentTurn returns the monotonic turn counter.
func (s *Session) CurrentTurn() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTurn
}

// Status returns the current lifecycle state.
func (s *Session) Status() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus applies a one-directional transition. Moving out of a terminal
// state, or from awaiting_turns back to active, is rejected.
func (s *Session) SetStatus(next SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatusLocked(next)
}

func (s *Session) setStatusLocked(next SessionStatus) error {
	if s.status == next {
		return nil
	}
	if s.status.Terminal() {
		return fmt.Errorf("session %s is terminal (%s)", s.ID, s.status)
	}
	if s.status == SessionAwaitingTurns && next == SessionActive {
		return fmt.Errorf("session %s cannot regress to active", s.ID)
	}
	s.status = next
	return nil
}

// Log returns a defensive copy of the full turn log.
func (s *Session) Log() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.log))
	copy(out, s.log)
	return out
}

// Window returns up to n most recent turns (defensive copy).
func (s *Session) Window(n int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.log) {
		n = len(s.log)
	}
	out := make([]Turn, n)
	copy(out, s.log[len(s.log)-n:])
	return out
}

// Scores returns the current convergence score and divergence intensity.
func (s *Session) Scores() (convergence, divergence float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.convergenceScore, s.divergenceIntensity
}

// SetScores stores the recomputed round scores, clamping convergence to
// [0,1] and flooring divergence at 0.
func (s *Session) SetScores(convergence, divergence float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convergenceScore = clamp01(convergence)
	if divergence < 0 {
		divergence = 0
	}
	s.divergenceIntensity = divergence
}

// Entangle links two participants. The pair key is order-insensitive.
func (s *Session) Entangle(idA, idB string) {
	if idA == idB {
		return
	}
	if idB < idA {
		idA, idB = idB, idA
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entanglement[idA+"|"+idB] = struct{}{}
}

// EntanglementCount returns the number of distinct entangled pairs.
func (s *Session) EntanglementCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entanglement)
}

// Conclude transitions to the terminal status and records the outcome label.
// A reason may be supplied for forced conclusions.
func (s *Session) Conclude(status SessionStatus, outcome, reason string) error {
	if !status.Terminal() {
		return fmt.Errorf("%s is not a terminal status", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setStatusLocked(status); err != nil {
		return err
	}
	s.outcomeLabel = outcome
	s.cancelReason = reason
	return nil
}

// Outcome returns the outcome label assigned at conclusion.
func (s *Session) Outcome() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcomeLabel
}

// CancelReason returns the reason tag of a forced conclusion, if any.
func (s *Session) CancelReason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancelReason
}
