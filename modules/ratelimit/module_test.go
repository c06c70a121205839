package ratelimit

import (
	"context"
	"testing"
)

func TestModule_Disabled(t *testing.T) {
	m := NewModuleWithOptions(WithEnabled(false))

	if m.Name() != "rate-limiter" {
		t.Errorf("Name() = %q, want rate-limiter", m.Name())
	}
	if m.GetMiddleware() != nil {
		t.Error("GetMiddleware() should be nil when disabled")
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if status := m.Health(context.Background()); !status.Healthy {
		t.Errorf("Health() = %+v, want healthy", status)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestModule_EnabledBuildsMiddleware(t *testing.T) {
	m := NewModuleWithOptions(WithRedisAddr("127.0.0.1:1"))
	defer m.Stop(context.Background())

	if m.GetMiddleware() == nil {
		t.Fatal("GetMiddleware() should be available before Start")
	}
	if status := m.Health(context.Background()); status.Healthy {
		t.Error("Health() should report unreachable Redis")
	}
}
