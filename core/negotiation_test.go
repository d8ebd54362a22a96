package core

import (
	"context"
	"testing"
)

func newTestParticipant(name string) *Participant {
	base := NewEntity(name+"-base", []string{"curious"}, nil)
	replica := NewEntity(name, []string{"curious"}, nil)
	replica.ParentIDs = []string{base.ID}
	return NewParticipant(replica, KnowledgeFragment{ID: "f1", Summary: "seed"}, "pragmatic", "analyst", nil, nil)
}

func TestRoundForTurn_Mapping(t *testing.T) {
	cases := map[int]RoundType{
		1:  RoundPosition,
		2:  RoundCounterPosition,
		3:  RoundSynthesis,
		4:  RoundReflectiveSummary,
		5:  RoundConsensusVote,
		6:  RoundPosition,
		10: RoundConsensusVote,
	}
	for turn, want := range cases {
		if got := RoundForTurn(turn); got != want {
			t.Errorf("turn %d: expected %s, got %s", turn, want, got)
		}
	}
}

func TestSession_TurnCounterMonotonic(t *testing.T) {
	s := NewSession("topic", 3, 10)
	p := newTestParticipant("r1")
	if err := s.AddParticipant(p, false); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	prev := s.CurrentTurn()
	for i := 0; i < 3; i++ {
		if _, err := s.AppendTurn(p.ID(), RoundForTurn(i+1), "content"); err != nil {
			t.Fatalf("append turn: %v", err)
		}
		if cur := s.CurrentTurn(); cur <= prev {
			t.Fatalf("turn counter regressed: %d -> %d", prev, cur)
		} else {
			prev = cur
		}
	}
	if s.TurnsTaken(p.ID()) != 3 {
		t.Errorf("expected 3 turns charged, got %d", s.TurnsTaken(p.ID()))
	}
}

func TestSession_StatusOneDirectional(t *testing.T) {
	s := NewSession("topic", 3, 10)
	if err := s.SetStatus(SessionAwaitingTurns); err != nil {
		t.Fatalf("active -> awaiting_turns: %v", err)
	}
	if err := s.SetStatus(SessionActive); err == nil {
		t.Error("regression to active should be rejected")
	}
	if err := s.Conclude(SessionConcludedByConvergence, OutcomePseudoConsensus, ""); err != nil {
		t.Fatalf("conclude: %v", err)
	}
	if err := s.SetStatus(SessionAwaitingTurns); err == nil {
		t.Error("leaving a terminal state should be rejected")
	}
	if _, err := s.AppendTurn("anyone", RoundPosition, "late"); err == nil {
		t.Error("appending to a concluded session should fail")
	}
}

func TestSession_ScoresBounded(t *testing.T) {
	s := NewSession("topic", 3, 10)
	s.SetScores(1.7, -0.4)
	conv, div := s.Scores()
	if conv != 1.0 {
		t.Errorf("convergence not clamped: %f", conv)
	}
	if div != 0 {
		t.Errorf("divergence not floored: %f", div)
	}
}

func TestSession_EntanglementPairKey(t *testing.T) {
	s := NewSession("topic", 3, 10)
	s.Entangle("b", "a")
	s.Entangle("a", "b")
	s.Entangle("a", "a")
	if s.EntanglementCount() != 1 {
		t.Errorf("expected 1 distinct link, got %d", s.EntanglementCount())
	}
}

func TestParticipant_FallbackWithoutGenerator(t *testing.T) {
	p := newTestParticipant("r1")
	out, err := p.TakeTurn(context.Background(), RoundPosition, "topic", nil)
	if err != nil {
		t.Fatalf("fallback turn should not error: %v", err)
	}
	if out == "" {
		t.Error("fallback turn should produce content")
	}
	if p.BaseID() == "" {
		t.Error("participant should resolve its base entity")
	}
}

func TestSession_WindowBounded(t *testing.T) {
	s := NewSession("topic", 10, 50)
	p := newTestParticipant("r1")
	_ = s.AddParticipant(p, false)
	for i := 0; i < 7; i++ {
		_, _ = s.AppendTurn(p.ID(), RoundForTurn(i+1), "c")
	}
	if got := len(s.Window(3)); got != 3 {
		t.Errorf("expected window of 3, got %d", got)
	}
	if got := len(s.Window(0)); got != 7 {
		t.Errorf("expected full log for n<=0, got %d", got)
	}
}
