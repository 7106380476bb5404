package health

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lumina-home/lumina-core/internal/telemetry"
	"github.com/lumina-home/lumina-core/internal/transport"
)

// mockOrchestrator implements Orchestrator for testing.
type mockOrchestrator struct {
	mu sync.Mutex

	refreshErr   error
	refreshCalls int
	snapshot     []transport.Health
}

func (m *mockOrchestrator) RefreshHealth(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCalls++
	return m.refreshErr
}

func (m *mockOrchestrator) GetHealthSnapshot() []transport.Health {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Fresh slice per call, like the real orchestrator.
	out := make([]transport.Health, len(m.snapshot))
	copy(out, m.snapshot)
	return out
}

func (m *mockOrchestrator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCalls
}

func testSnapshot() []transport.Health {
	return []transport.Health{
		{
			Descriptor:  transport.Descriptor{Kind: transport.KindLocal, Label: "LAN", Priority: 5},
			Healthy:     true,
			LastChecked: time.Now(),
		},
		{
			Descriptor:  transport.Descriptor{Kind: transport.KindCloud, Label: "Cloud", Priority: 10},
			Healthy:     false,
			LastChecked: time.Now(),
			Err:         &transport.ErrorInfo{Name: "APIError", Message: "503"},
		},
	}
}

// recordingLogger captures warn calls for assertion.
type recordingLogger struct {
	noopLogger
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func TestGetHealth_CacheHitSameInstance(t *testing.T) {
	orch := &mockOrchestrator{snapshot: testSnapshot()}
	svc := NewService(orch)
	ctx := context.Background()

	first := svc.GetHealth(ctx, false)
	second := svc.GetHealth(ctx, false)

	if orch.calls() != 1 {
		t.Errorf("RefreshHealth called %d times, want 1", orch.calls())
	}
	// Callers rely on reference equality to detect "no change".
	if &first[0] != &second[0] {
		t.Error("cache hit returned a different slice instance")
	}
}

func TestGetHealth_ForceRefreshes(t *testing.T) {
	orch := &mockOrchestrator{snapshot: testSnapshot()}
	svc := NewService(orch)
	ctx := context.Background()

	svc.GetHealth(ctx, false)
	svc.GetHealth(ctx, true)

	if orch.calls() != 2 {
		t.Errorf("RefreshHealth called %d times, want 2", orch.calls())
	}
}

func TestGetHealth_RefreshFailureServesSnapshot(t *testing.T) {
	orch := &mockOrchestrator{
		snapshot:   testSnapshot(),
		refreshErr: errors.New("context cancelled"),
	}
	logger := &recordingLogger{}
	svc := NewService(orch)
	svc.SetLogger(logger)

	snapshot := svc.GetHealth(context.Background(), true)

	if len(snapshot) != 2 {
		t.Fatalf("got %d entries despite refresh failure, want 2", len(snapshot))
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warns) != 1 {
		t.Errorf("got %d warning logs, want 1", len(logger.warns))
	}
}

func TestGetHealth_RecordsTelemetry(t *testing.T) {
	refreshErr := errors.New("probe interrupted")
	orch := &mockOrchestrator{snapshot: testSnapshot(), refreshErr: refreshErr}
	sink := telemetry.NewMemorySink()
	svc := NewService(orch)
	svc.SetSink(sink)

	svc.GetHealth(context.Background(), true)

	refreshes := sink.HealthRefreshes()
	if len(refreshes) != 1 {
		t.Fatalf("got %d telemetry records, want 1", len(refreshes))
	}
	if len(refreshes[0].Snapshot) != 2 {
		t.Errorf("telemetry snapshot holds %d entries, want 2", len(refreshes[0].Snapshot))
	}
	if refreshes[0].Err == nil || refreshes[0].Err.Message != "probe interrupted" {
		t.Errorf("telemetry Err = %+v, want probe interrupted", refreshes[0].Err)
	}
}

func TestSubscribe_NotifiedOnRefreshOnly(t *testing.T) {
	orch := &mockOrchestrator{snapshot: testSnapshot()}
	svc := NewService(orch)
	ctx := context.Background()

	var mu sync.Mutex
	var notifications int
	svc.Subscribe(func(snapshot []transport.Health) {
		mu.Lock()
		defer mu.Unlock()
		notifications++
		if len(snapshot) != 2 {
			t.Errorf("listener got %d entries, want 2", len(snapshot))
		}
	})

	svc.GetHealth(ctx, false) // refresh (cold cache)
	svc.GetHealth(ctx, false) // cache hit, no notification
	svc.GetHealth(ctx, true)  // forced refresh

	mu.Lock()
	defer mu.Unlock()
	if notifications != 2 {
		t.Errorf("listener notified %d times, want 2", notifications)
	}
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	orch := &mockOrchestrator{snapshot: testSnapshot()}
	svc := NewService(orch)
	ctx := context.Background()

	var mu sync.Mutex
	var first, second int
	unsub := svc.Subscribe(func([]transport.Health) {
		mu.Lock()
		first++
		mu.Unlock()
	})
	svc.Subscribe(func([]transport.Health) {
		mu.Lock()
		second++
		mu.Unlock()
	})

	svc.GetHealth(ctx, true)
	unsub()
	svc.GetHealth(ctx, true)

	mu.Lock()
	defer mu.Unlock()
	if first != 1 {
		t.Errorf("unsubscribed listener notified %d times, want 1", first)
	}
	if second != 2 {
		t.Errorf("remaining listener notified %d times, want 2", second)
	}
}

func TestSubscribe_DeliveryOrder(t *testing.T) {
	orch := &mockOrchestrator{snapshot: testSnapshot()}
	svc := NewService(orch)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		svc.Subscribe(func([]transport.Health) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	svc.GetHealth(context.Background(), true)

	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i {
			t.Fatalf("delivery order = %v, want [0 1 2]", order)
		}
	}
}
