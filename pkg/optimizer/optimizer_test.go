package optimizer

import "testing"

type recordingOptimizer struct {
	uid   string
	level uint8
	order int
	pass  uint8
	calls *[]string
}

func (o recordingOptimizer) Optimize(p *Program) { *o.calls = append(*o.calls, o.uid) }
func (o recordingOptimizer) UID() string         { return o.uid }
func (o recordingOptimizer) Level() uint8        { return o.level }
func (o recordingOptimizer) Order() int          { return o.order }
func (o recordingOptimizer) Pass() uint8         { return o.pass }

func TestManager_OrdersByOrderThenUID(t *testing.T) {
	var calls []string
	m := NewManager(10)
	m.Add(recordingOptimizer{uid: "b", order: 1, pass: 1, calls: &calls})
	m.Add(recordingOptimizer{uid: "a", order: 1, pass: 1, calls: &calls})
	m.Add(recordingOptimizer{uid: "z", order: 0, pass: 1, calls: &calls})

	m.Optimize(&Program{}, nil)

	want := []string{"z", "a", "b"}
	if len(calls) != len(want) {
		t.Fatalf("got %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("got %v, want %v", calls, want)
		}
	}
}

func TestManager_LevelGating(t *testing.T) {
	var calls []string
	m := NewManager(1)
	m.Add(recordingOptimizer{uid: "low", level: 1, order: 0, pass: 1, calls: &calls})
	m.Add(recordingOptimizer{uid: "high", level: 5, order: 1, pass: 1, calls: &calls})

	m.Optimize(&Program{}, nil)

	if len(calls) != 1 || calls[0] != "low" {
		t.Fatalf("expected only the level-1 pass to run, got %v", calls)
	}
}

func TestManager_PassBoundedRounds(t *testing.T) {
	// Round i runs every optimizer whose Pass() >= i: an
	// optimizer with a higher Pass value runs in every round up to and
	// including its own, not just starting at it. "once", with Pass=1,
	// only qualifies for round 1; "twice", with Pass=2, qualifies for
	// both round 1 and round 2.
	var calls []string
	m := NewManager(10)
	m.Add(recordingOptimizer{uid: "once", level: 0, order: 0, pass: 1, calls: &calls})
	m.Add(recordingOptimizer{uid: "twice", level: 0, order: 1, pass: 2, calls: &calls})

	m.Optimize(&Program{}, nil)

	want := []string{"once", "twice", "twice"}
	if len(calls) != len(want) {
		t.Fatalf("got %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("got %v, want %v", calls, want)
		}
	}
}

func TestManager_Disables(t *testing.T) {
	var calls []string
	m := NewManager(10)
	m.Add(recordingOptimizer{uid: "keep", order: 0, pass: 1, calls: &calls})
	m.Add(recordingOptimizer{uid: "skip", order: 1, pass: 1, calls: &calls})

	m.Optimize(&Program{}, map[string]bool{"skip": true})

	if len(calls) != 1 || calls[0] != "keep" {
		t.Fatalf("expected disabled optimizer to be skipped, got %v", calls)
	}
}
