package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/siteaudit/siteaudit/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, report *model.CrawlReport) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, report *model.CrawlReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, report)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func testReport() *model.CrawlReport {
	target := model.CrawlTarget{RawInput: "example.com", NormalizedURL: "https://example.com/"}
	return model.NewCrawlReport(target, "example.com")
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))

		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds single step", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "test-step"})

		if p.StepCount() != 1 {
			t.Errorf("expected 1 step, got %d", p.StepCount())
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(
			&mockStep{name: "first"},
			&mockStep{name: "second"},
			&mockStep{name: "third"},
		)

		names := p.StepNames()

		expected := []string{"first", "second", "third"}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		executionOrder := make([]string, 0)

		p := New()
		for _, name := range []string{"first", "second", "third"} {
			name := name
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(ctx context.Context, report *model.CrawlReport) error {
					executionOrder = append(executionOrder, name)
					return nil
				},
			})
		}

		if err := p.Execute(context.Background(), testReport()); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		expected := []string{"first", "second", "third"}
		if len(executionOrder) != len(expected) {
			t.Fatalf("executed %d steps, expected %d", len(executionOrder), len(expected))
		}
		for i, name := range executionOrder {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		stepErr := errors.New("step failed")
		failing := &mockStep{
			name: "failing",
			doFunc: func(ctx context.Context, report *model.CrawlReport) error {
				return stepErr
			},
		}
		after := &mockStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		if err := p.Execute(context.Background(), testReport()); !errors.Is(err, stepErr) {
			t.Errorf("Execute() error = %v, expected step error", err)
		}
		if after.callCount != 0 {
			t.Error("step after the failure should not have run")
		}
	})

	t.Run("continues past errors when configured", func(t *testing.T) {
		t.Parallel()

		failing := &mockStep{
			name: "failing",
			doFunc: func(ctx context.Context, report *model.CrawlReport) error {
				return errors.New("step failed")
			},
		}
		after := &mockStep{name: "after"}

		p := New(WithContinueOnError(true))
		p.AddSteps(failing, after)

		if err := p.Execute(context.Background(), testReport()); err != nil {
			t.Errorf("Execute() error = %v, expected nil with continueOnError", err)
		}
		if after.callCount != 1 {
			t.Error("step after the failure should still have run")
		}
	})

	t.Run("respects context cancellation between steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		first := &mockStep{
			name: "first",
			doFunc: func(ctx context.Context, report *model.CrawlReport) error {
				cancel()
				return nil
			},
		}
		second := &mockStep{name: "second"}

		p := New()
		p.AddSteps(first, second)

		if err := p.Execute(ctx, testReport()); !errors.Is(err, context.Canceled) {
			t.Errorf("Execute() error = %v, expected context.Canceled", err)
		}
		if second.callCount != 0 {
			t.Error("step after cancellation should not have run")
		}
	})
}
