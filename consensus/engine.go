// Package consensus post-hoc analyzes concluded negotiation sessions:
// extracts themes from the log, synthesizes a knowledge summary, validates
// it against a self-tuning threshold, optionally emits a conceptual patch
// and persists the result to the knowledge store.
package consensus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/internal/textutil"
	"github.com/dr3armsed/AiAlive-sub000/logging"
)

// Status is the structured outcome of a consensus evaluation. An
// insufficient score is a normal, retryable outcome, not an error.
type Status string

const (
	// StatusValidated marks a synthesis that cleared the threshold.
	StatusValidated Status = "validated_consensus"
	// StatusPendingReDebate marks a synthesis that fell short.
	StatusPendingReDebate Status = "pending_re_debate"
)

// Result carries everything downstream consumers (offspring generation,
// persistence, operators) need about one evaluation.
type Result struct {
	Status               Status
	ValidationScore      float64
	Issues               []string
	SynthesizedKnowledge string
	Patch                string
	PatchID              string
	ContributingEntities []string
	TurnCounts           map[string]int
	KnowledgeID          string
	// Unsynced is set when validation succeeded but the knowledge store
	// write failed; the result is still usable, just not persisted.
	Unsynced bool
	// SessionID links the result back to the negotiation it came from.
	SessionID string
}

// themeVocabulary is the fixed keyword/topic vocabulary themes are detected
// against.
var themeVocabulary = map[string][]string{
	"alignment":   {"agree", "align", "aligned", "shared", "consensus", "common"},
	"integration": {"integrate", "synthesis", "together", "converges", "harmonize"},
	"inquiry":     {"support", "verify", "examine", "premises", "principles", "grounding"},
	"memory":      {"memory", "remember", "recall", "fragment"},
	"conflict":    {"disagree", "contradiction", "oppose", "reject", "flawed"},
}

// contradiction/ambiguity vocabularies drive the validation penalties.
var (
	contradictionKeywords = []string{"contradiction", "disagree", "reject", "oppose"}
	ambiguityKeywords     = []string{"maybe", "unclear", "ambiguous", "perhaps", "vague"}
)

// Scoring weights. Theme count saturates at three themes, length buckets at
// three; jitter is bounded so it can nudge but never decide on its own.
const (
	scoreBase          = 0.2
	themeWeight        = 0.15
	maxThemes          = 3
	lengthBucketWeight = 0.1
	maxLengthBucket    = 3
	lengthBucketSize   = 80
	jitterSpan         = 0.05
	contradictionCost  = 0.15
	ambiguityCost      = 0.1
)

// Options configures an Engine.
type Options struct {
	// Knowledge receives validated syntheses and patches. May be nil; the
	// result then reports Unsynced.
	Knowledge core.KnowledgeStore
	// Rand drives validation jitter and patch selection. Seed for
	// deterministic tests.
	Rand core.Rand
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// Threshold is the initial validation threshold.
	Threshold float64
}

// Engine evaluates concluded sessions. The threshold self-tunes inside
// [0.30, 0.75] based on a rolling window of recent outcomes.
type Engine struct {
	opts      Options
	threshold *adaptiveThreshold
	log       logging.Logger
}

// NewEngine constructs an Engine with optional overrides.
func NewEngine(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Rand:      core.NewTimeRand(),
		Logger:    logging.NoOpLogger{},
		Threshold: 0.70,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Engine{opts: opts, threshold: newAdaptiveThreshold(opts.Threshold), log: opts.Logger}
}

// Threshold returns the current self-tuned validation threshold.
func (e *Engine) Threshold() float64 { return e.threshold.value() }

// Evaluate analyzes a concluded session's log. Only terminal sessions are
// accepted; everything else is a ValidationError.
func (e *Engine) Evaluate(session *core.Session) (Result, error) {
	if session == nil {
		return Result{}, &core.ValidationError{Field: "session", Reason: "nil"}
	}
	if !session.Status().Terminal() {
		return Result{}, &core.ValidationError{Field: "session", Reason: "not concluded"}
	}
	log := session.Log()
	if len(log) == 0 {
		return Result{}, &core.ValidationError{Field: "session", Reason: "empty log"}
	}

	themes := detectThemes(log)
	contributors, turnCounts := tallyContributors(session)
	synthesis := e.synthesize(session.Topic, log, themes)
	score, issues := e.score(synthesis, themes, log)
	threshold := e.threshold.value()

	result := Result{
		ValidationScore:      score,
		Issues:               issues,
		SynthesizedKnowledge: synthesis,
		ContributingEntities: contributors,
		TurnCounts:           turnCounts,
		SessionID:            session.ID,
	}

	validated := score >= threshold
	e.threshold.record(validated)
	if !validated {
		result.Status = StatusPendingReDebate
		e.log.Info("consensus insufficient", "session_id", session.ID, "score", score, "threshold", threshold)
		return result, nil
	}

	result.Status = StatusValidated
	result.Patch = e.generatePatch(themes, session.Topic)
	e.persist(&result, session, themes)
	e.log.Info("consensus validated", "session_id", session.ID, "score", score, "threshold", threshold, "themes", themes)
	return result, nil
}

// detectThemes returns the themes whose vocabulary appears in the log, in
// stable (sorted) order.
func detectThemes(log []core.Turn) []string {
	var all strings.Builder
	for _, t := range log {
		all.WriteString(t.Content)
		all.WriteByte(' ')
	}
	text := all.String()
	var themes []string
	for theme, vocab := range themeVocabulary {
		if len(textutil.DistinctHits(text, vocab)) > 0 {
			themes = append(themes, theme)
		}
	}
	sort.Strings(themes)
	return themes
}

// tallyContributors maps participants back to their base entities and counts
// turns per base. Participants without a base entity (session-local mediators)
// have no persistent lineage and are excluded from the tally.
func tallyContributors(session *core.Session) ([]string, map[string]int) {
	counts := map[string]int{}
	for _, st := range session.Participants() {
		base := st.Participant.BaseID()
		if base == "" {
			continue
		}
		counts[base] += st.TurnsTaken
	}
	contributors := make([]string, 0, len(counts))
	for id, n := range counts {
		if n > 0 {
			contributors = append(contributors, id)
		}
	}
	sort.Strings(contributors)
	return contributors, counts
}

// synthesize builds the summary: one representative log line per detected
// theme, falling back to random snippets when no theme matched.
func (e *Engine) synthesize(topic string, log []core.Turn, themes []string) string {
	var lines []string
	for _, theme := range themes {
		if line := representativeLine(log, themeVocabulary[theme]); line != "" {
			lines = append(lines, fmt.Sprintf("[%s] %s", theme, line))
		}
	}
	if len(lines) == 0 {
		// no thematic structure: sample a few snippets so the synthesis is
		// still non-empty and reviewable
		for i := 0; i < 3 && len(log) > 0; i++ {
			t := log[e.opts.Rand.Intn(len(log))]
			lines = append(lines, snippet(t.Content))
		}
	}
	return fmt.Sprintf("Consensus on %q: %s", topic, strings.Join(lines, " | "))
}

func representativeLine(log []core.Turn, vocab []string) string {
	for _, t := range log {
		if len(textutil.DistinctHits(t.Content, vocab)) > 0 {
			return snippet(t.Content)
		}
	}
	return ""
}

func snippet(content string) string {
	const max = 160
	if len(content) <= max {
		return content
	}
	return content[:max] + "..."
}

// score computes the weighted validation score plus bounded jitter minus
// contradiction/ambiguity penalties, clamped to [0,1].
func (e *Engine) score(synthesis string, themes []string, log []core.Turn) (float64, []string) {
	themeCount := len(themes)
	if themeCount > maxThemes {
		themeCount = maxThemes
	}
	bucket := len(synthesis) / lengthBucketSize
	if bucket > maxLengthBucket {
		bucket = maxLengthBucket
	}

	var all strings.Builder
	for _, t := range log {
		all.WriteString(t.Content)
		all.WriteByte(' ')
	}
	text := all.String()
	contradictions := textutil.DistinctHits(text, contradictionKeywords)
	ambiguities := textutil.DistinctHits(text, ambiguityKeywords)

	var issues []string
	for _, w := range contradictions {
		issues = append(issues, "contradiction signal: "+w)
	}
	for _, w := range ambiguities {
		issues = append(issues, "ambiguity signal: "+w)
	}

	jitter := (e.opts.Rand.Float64()*2 - 1) * jitterSpan
	score := scoreBase +
		themeWeight*float64(themeCount) +
		lengthBucketWeight*float64(bucket) +
		jitter -
		contradictionCost*float64(len(contradictions)) -
		ambiguityCost*float64(len(ambiguities))
	return core.Clamp01(score), issues
}

// persist writes the synthesis (and patch, when present) to the knowledge
// store. Failure degrades the result to unsynced rather than erroring.
func (e *Engine) persist(result *Result, session *core.Session, themes []string) {
	if e.opts.Knowledge == nil {
		result.Unsynced = true
		return
	}

	var patchID string
	if result.Patch != "" {
		patch := core.NewKnowledgeEntry(result.Patch, "conceptual_patch", "negotiation:"+session.ID)
		patch.ConsensusScore = result.ValidationScore
		patch.ContributingEntities = result.ContributingEntities
		patch.Tags = append([]string{"patch"}, themes...)
		id, err := e.opts.Knowledge.Store(patch)
		if err != nil {
			e.log.Warn("patch persistence failed", "session_id", session.ID, "error", err)
		} else {
			patchID = id
			result.PatchID = id
		}
	}

	entry := core.NewKnowledgeEntry(result.SynthesizedKnowledge, "consensus_synthesis", "negotiation:"+session.ID)
	entry.ConsensusScore = result.ValidationScore
	entry.ContributingEntities = result.ContributingEntities
	entry.Tags = append([]string{session.Topic}, themes...)
	if patchID != "" {
		entry.PatchIDs = []string{patchID}
		entry.Dependencies = []string{patchID}
	}
	id, err := e.opts.Knowledge.Store(entry)
	if err != nil {
		e.log.Warn("knowledge persistence failed, concluding with unsynced knowledge", "session_id", session.ID, "error", err)
		result.Unsynced = true
		return
	}
	result.KnowledgeID = id
}
