package telemetry

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lumina-home/lumina-core/internal/transport"
)

func TestMemorySink_RecordDiscovery(t *testing.T) {
	sink := NewMemorySink()

	sink.RecordDiscovery(DiscoveryRecord{
		Total:        3,
		LastCount:    7,
		Stale:        true,
		LastDuration: 120 * time.Millisecond,
	})

	rec := sink.Discovery()
	if rec.Total != 3 {
		t.Errorf("Total = %d, want 3", rec.Total)
	}
	if rec.LastCount != 7 {
		t.Errorf("LastCount = %d, want 7", rec.LastCount)
	}
	if !rec.Stale {
		t.Error("Stale = false, want true")
	}
}

func TestMemorySink_RecordCommand(t *testing.T) {
	sink := NewMemorySink()

	sink.RecordCommand("Power", CommandStats{Total: 5, Failures: 1})
	sink.RecordCommand("Brightness", CommandStats{Total: 2})

	stats, ok := sink.Command("Power")
	if !ok {
		t.Fatal("Command(Power) not found")
	}
	if stats.Total != 5 || stats.Failures != 1 {
		t.Errorf("Power stats = %+v, want Total=5 Failures=1", stats)
	}

	if _, ok := sink.Command("Scene"); ok {
		t.Error("Command(Scene) found, want missing")
	}

	all := sink.Commands()
	if len(all) != 2 {
		t.Errorf("Commands() returned %d entries, want 2", len(all))
	}
}

func TestMemorySink_RecordTransportHealth(t *testing.T) {
	sink := NewMemorySink()

	snapshot := []transport.Health{
		{Descriptor: transport.Descriptor{Kind: transport.KindLocal, Label: "LAN"}, Healthy: true},
	}

	sink.RecordTransportHealth(snapshot, 30*time.Millisecond, nil)
	sink.RecordTransportHealth(snapshot, 45*time.Millisecond, errors.New("refresh interrupted"))

	refreshes := sink.HealthRefreshes()
	if len(refreshes) != 2 {
		t.Fatalf("HealthRefreshes() returned %d records, want 2", len(refreshes))
	}
	if refreshes[0].Err != nil {
		t.Errorf("first refresh Err = %v, want nil", refreshes[0].Err)
	}
	if refreshes[1].Err == nil {
		t.Fatal("second refresh Err = nil, want populated")
	}
	if refreshes[1].Err.Message != "refresh interrupted" {
		t.Errorf("Err.Message = %q, want %q", refreshes[1].Err.Message, "refresh interrupted")
	}
}

func TestMultiSink_FansOut(t *testing.T) {
	first := NewMemorySink()
	second := NewMemorySink()
	multi := Multi(first, nil, second)

	multi.RecordDiscovery(DiscoveryRecord{Total: 1, LastCount: 4})
	multi.RecordCommand("Power", CommandStats{Total: 2})

	for i, sink := range []*MemorySink{first, second} {
		if got := sink.Discovery().LastCount; got != 4 {
			t.Errorf("sink %d LastCount = %d, want 4", i, got)
		}
		if _, ok := sink.Command("Power"); !ok {
			t.Errorf("sink %d missing Power stats", i)
		}
	}
}

func TestMemorySink_ConcurrentAccess(t *testing.T) {
	sink := NewMemorySink()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sink.RecordCommand("Power", CommandStats{Total: 1})
		}()
		go func() {
			defer wg.Done()
			_ = sink.Commands()
		}()
	}
	wg.Wait()
}
