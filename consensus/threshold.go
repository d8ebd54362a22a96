package consensus

import "sync"

// Threshold self-tuning bounds. A uniform rolling window of failures eases
// the bar, a uniform window of successes raises it; mixed windows leave it
// alone.
const (
	thresholdFloor   = 0.30
	thresholdCeil    = 0.75
	thresholdStep    = 0.05
	thresholdHistory = 10
)

// adaptiveThreshold tracks recent evaluation outcomes and adjusts the
// validation threshold inside [thresholdFloor, thresholdCeil].
type adaptiveThreshold struct {
	mu       sync.Mutex
	current  float64
	outcomes []bool
}

func newAdaptiveThreshold(initial float64) *adaptiveThreshold {
	if initial < thresholdFloor {
		initial = thresholdFloor
	}
	if initial > thresholdCeil {
		initial = thresholdCeil
	}
	return &adaptiveThreshold{current: initial}
}

func (t *adaptiveThreshold) value() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// record appends one outcome. Once the window is full and uniform the
// threshold steps in the appropriate direction and the window resets, so a
// single streak adjusts the threshold once.
func (t *adaptiveThreshold) record(validated bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.outcomes = append(t.outcomes, validated)
	if len(t.outcomes) > thresholdHistory {
		t.outcomes = t.outcomes[1:]
	}
	if len(t.outcomes) < thresholdHistory {
		return
	}

	allPass, allFail := true, true
	for _, ok := range t.outcomes {
		if ok {
			allFail = false
		} else {
			allPass = false
		}
	}
	switch {
	case allFail:
		t.current -= thresholdStep
		if t.current < thresholdFloor {
			t.current = thresholdFloor
		}
	case allPass:
		t.current += thresholdStep
		if t.current > thresholdCeil {
			t.current = thresholdCeil
		}
	default:
		return
	}
	t.outcomes = t.outcomes[:0]
}
