package corefx

import (
	"testing"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

func TestInstanceMapByModuleOrDefault(t *testing.T) {
	m := newInstanceMap[string]()
	m.store(map[string]string{"": "default-instance", "billing": "billing-instance"})

	if v, ok := m.byModuleOrDefault("BILLING"); !ok || v != "billing-instance" {
		t.Errorf("expected case-insensitive lookup to find billing-instance, got %q (ok=%v)", v, ok)
	}
	if v, ok := m.byModuleOrDefault("unknown"); !ok || v != "default-instance" {
		t.Errorf("expected fallback to default instance, got %q (ok=%v)", v, ok)
	}
}

func TestInstanceMapStoreIsAtomicSwap(t *testing.T) {
	m := newInstanceMap[int]()
	m.store(map[string]int{"": 1})
	snapshot := m.all()

	m.store(map[string]int{"": 2})

	if snapshot[""] != 1 {
		t.Errorf("expected the earlier snapshot to stay at 1, got %d", snapshot[""])
	}
	if v, _ := m.get(""); v != 2 {
		t.Errorf("expected the live map to observe the swap, got %d", v)
	}
}

func TestBuildFamilyIteratesDefaultAndModules(t *testing.T) {
	fam := fwconfig.FamilyConfig[int]{
		Default: 10,
		Modules: map[string]int{"Orders": 20, "billing": 30},
	}

	out, err := buildFamily(fam, func(n int) (int, error) { return n * 2, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[""] != 20 {
		t.Errorf("expected default*2 == 20, got %d", out[""])
	}
	if out["orders"] != 40 {
		t.Errorf("expected lower-cased module key, got %#v", out)
	}
	if out["billing"] != 60 {
		t.Errorf("expected billing*2 == 60, got %d", out["billing"])
	}
}

func TestBuildFamilyPropagatesError(t *testing.T) {
	fam := fwconfig.FamilyConfig[int]{Default: 1, Modules: map[string]int{"bad": 2}}
	sentinel := errBoom{}

	_, err := buildFamily(fam, func(n int) (int, error) {
		if n == 2 {
			return 0, sentinel
		}
		return n, nil
	})
	if err != sentinel {
		t.Fatalf("expected the constructor's error to propagate, got %v", err)
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
