package pool

import (
	"context"
	"testing"
	"time"

	"github.com/coachpo/simpool/config"
	"github.com/coachpo/simpool/errs"
)

func widgetPoolableFactory() Factory[Poolable] {
	return FactoryFunc[Poolable](func() (Poolable, error) {
		return &widget{}, nil
	})
}

func TestManagerRegisterRejectsDuplicates(t *testing.T) {
	m := NewManager()
	if err := m.Register("widgets", widgetPoolableFactory()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := m.Register("widgets", widgetPoolableFactory()); !errs.IsInvalid(err) {
		t.Fatalf("expected invalid_request for duplicate registration, got %v", err)
	}
}

func TestManagerGetGiveCycle(t *testing.T) {
	m := NewManager()
	if err := m.Register("widgets", widgetPoolableFactory(), WithMaxAllocations(4)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	obj, err := m.Get("widgets")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	w, ok := obj.(*widget)
	if !ok {
		t.Fatalf("expected *widget, got %T", obj)
	}
	w.value = 9

	if err := m.Give("widgets", w); err != nil {
		t.Fatalf("Give failed: %v", err)
	}

	again, err := m.Get("widgets")
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if again.(*widget).value != 0 {
		t.Fatal("expected instance to be reset on give")
	}
	if err := m.Give("widgets", again); err != nil {
		t.Fatalf("Give failed: %v", err)
	}
}

func TestManagerUnknownPool(t *testing.T) {
	m := NewManager()
	if _, err := m.Get("absent"); !errs.IsInvalid(err) {
		t.Fatalf("expected invalid_request for unknown pool, got %v", err)
	}
	if err := m.Give("absent", &widget{}); !errs.IsInvalid(err) {
		t.Fatalf("expected invalid_request for unknown pool, got %v", err)
	}
}

func TestManagerTryGetExhaustion(t *testing.T) {
	m := NewManager()
	if err := m.Register("widgets", widgetPoolableFactory(), WithMaxAllocations(1)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	obj, ok, err := m.TryGet("widgets")
	if err != nil || !ok || obj == nil {
		t.Fatalf("expected success, got %v/%v/%v", obj, ok, err)
	}
	if _, ok, err := m.TryGet("widgets"); ok || err != nil {
		t.Fatalf("expected quiet exhaustion, got ok=%v err=%v", ok, err)
	}
	if err := m.Give("widgets", obj); err != nil {
		t.Fatalf("Give failed: %v", err)
	}
}

func TestManagerGiveForeignInstanceDoesNotUnderflow(t *testing.T) {
	m := NewManager()
	if err := m.Register("widgets", widgetPoolableFactory(), WithMaxAllocations(1)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Overfill give with no outstanding instance.
	if err := m.Give("widgets", &widget{}); err != nil {
		t.Fatalf("foreign give failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestManagerShutdownWaitsForReturns(t *testing.T) {
	m := NewManager()
	if err := m.Register("widgets", widgetPoolableFactory()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	obj, err := m.Get("widgets")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = m.Give("widgets", obj)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if _, err := m.Get("widgets"); !errs.IsClosed(err) {
		t.Fatalf("expected closed error after shutdown, got %v", err)
	}
	if err := m.Register("late", widgetPoolableFactory()); !errs.IsClosed(err) {
		t.Fatalf("expected closed error for late registration, got %v", err)
	}
}

func TestManagerShutdownTimesOutOnLeak(t *testing.T) {
	m := NewManager()
	if err := m.Register("widgets", widgetPoolableFactory()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := m.Get("widgets"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := m.Shutdown(ctx); !errs.IsClosed(err) {
		t.Fatalf("expected closed error on leak timeout, got %v", err)
	}
}

func TestFromConfigRegistersConfiguredPools(t *testing.T) {
	cfg := config.Apply(config.Default(),
		config.WithPool(config.PoolSettings{Name: "widgets", StartSize: 2, MaxAllocations: 4}),
	)
	m, err := FromConfig(cfg, map[string]Factory[Poolable]{
		"widgets": widgetPoolableFactory(),
	})
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}

	sp, ok := m.Pool("widgets")
	if !ok {
		t.Fatal("expected widgets pool")
	}
	if sp.Available() != 2 || sp.MaxAllocations() != 4 {
		t.Fatalf("unexpected pool settings %d/%d", sp.Available(), sp.MaxAllocations())
	}
}

func TestFromConfigMissingFactory(t *testing.T) {
	cfg := config.Apply(config.Default(),
		config.WithPool(config.PoolSettings{Name: "widgets", StartSize: 0, MaxAllocations: 0}),
	)
	if _, err := FromConfig(cfg, nil); !errs.IsInvalid(err) {
		t.Fatalf("expected invalid_request for missing factory, got %v", err)
	}
}
