package digestengine

import "testing"

func TestWithInlineAndExternalContextConflict(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic from conflicting context options")
		}
	}()
	co := &configOptions{}
	WithInlineContext(struct{}{})(co)
	WithExternalContext(&struct{}{}, func(any) {})(co)
}

func TestWithExternalContextRequiresFreeFn(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic from a nil freeing function")
		}
	}()
	co := &configOptions{}
	WithExternalContext(&struct{}{}, nil)(co)
}

func TestWithMetricsRejectsNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic from a nil metrics provider")
		}
	}()
	co := &configOptions{}
	WithMetrics(nil)(co)
}

func TestWithFeedCeilingRejectsNegative(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic from a negative feed ceiling")
		}
	}()
	co := &configOptions{}
	WithFeedCeiling(-1)(co)
}

type inlineTemplateContext struct{ Seed int }

type inlineTemplateOps struct{}

func (inlineTemplateOps) Feed(h *Handle[inlineTemplateContext], mem []byte, isLast bool) (int, error) {
	return len(mem), nil
}

func (inlineTemplateOps) ReadDigest(h *Handle[inlineTemplateContext], mem []byte) (int, error) {
	return len(mem), nil
}

func (inlineTemplateOps) Cleanup(h *Handle[inlineTemplateContext]) {}

// TestWithInlineContextCopiesTemplate guards against New silently
// discarding the template and handing the backend a zeroed context
// instead, per spec.md §3/§4.1's "owned inline (content copied from a
// template)".
func TestWithInlineContextCopiesTemplate(t *testing.T) {
	h, err := New[inlineTemplateContext](inlineTemplateOps{}, 4, Config{
		OnDigestReady: func(Blob) {},
		Loop:          newFakeLoop(),
	}, WithInlineContext(inlineTemplateContext{Seed: 42}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if h.GetContext().Seed != 42 {
		t.Fatalf("GetContext().Seed = %d, want 42 (template was not copied)", h.GetContext().Seed)
	}
}

func TestResolveOptionsAppliesAll(t *testing.T) {
	loop := newFakeLoop()
	cfg := defaultConfig()
	cfg.OnDigestReady = func(Blob) {}
	co, err := resolveOptions(cfg, []Option{
		WithTimerScheduler(loop),
		WithFeedCeiling(100),
	})
	if err != nil {
		t.Fatalf("resolveOptions() = %v, want nil", err)
	}
	if co.cfg.Scheduler != SchedulerTimer {
		t.Fatalf("cfg.Scheduler = %v, want SchedulerTimer", co.cfg.Scheduler)
	}
	if co.cfg.FeedSizeCeiling != 100 {
		t.Fatalf("cfg.FeedSizeCeiling = %d, want 100", co.cfg.FeedSizeCeiling)
	}
}
