package telegram

import "testing"

func TestFloodLimiterAllowsBurstThenDrops(t *testing.T) {
	t.Parallel()
	f := newFloodLimiter(FloodConfig{MsgsPerSec: 1, Burst: 3})

	for i := 0; i < 3; i++ {
		if !f.allow(1) {
			t.Fatalf("message %d within burst was dropped", i)
		}
	}
	if f.allow(1) {
		t.Fatal("message over burst was allowed")
	}

	// Other users have their own budget.
	if !f.allow(2) {
		t.Fatal("second user should not share the first user's limiter")
	}
}

func TestFloodLimiterDefaults(t *testing.T) {
	t.Parallel()
	f := newFloodLimiter(FloodConfig{})
	if f.cfg.MsgsPerSec != 1 || f.cfg.Burst != 3 {
		t.Fatalf("defaults = %+v", f.cfg)
	}
}
