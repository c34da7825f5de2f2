package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockChecker{}, &mockChecker{}, &mockDBPinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, c := range []string{ComponentDataset, ComponentTranslator, ComponentCache} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
}

func TestCheck_DatasetNotLoaded(t *testing.T) {
	svc := New(&mockChecker{err: errors.New("tree data unavailable")}, &mockChecker{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentDataset] != CheckError {
		t.Errorf("expected dataset %q, got %q", CheckError, r.Checks[ComponentDataset])
	}
	if r.Checks[ComponentTranslator] != CheckOK {
		t.Errorf("expected translator %q, got %q", CheckOK, r.Checks[ComponentTranslator])
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(&mockChecker{}, &mockChecker{}, &mockDBPinger{err: errors.New("conn refused")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentCache] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks[ComponentCache])
	}
}

func TestCheck_AllFailing(t *testing.T) {
	svc := New(&mockChecker{err: errors.New("a")}, &mockChecker{err: errors.New("b")}, &mockDBPinger{err: errors.New("c")})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_OptionalComponentsOmitted(t *testing.T) {
	svc := New(&mockChecker{}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the dataset check, got %v", r.Checks)
	}
	if _, ok := r.Checks[ComponentTranslator]; ok {
		t.Error("translator check should be absent")
	}
}
