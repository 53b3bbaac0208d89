package corefx

import (
	"context"
	"testing"
)

func TestCallerContextHasRole(t *testing.T) {
	cc := NewCallerContext("", "", "alice", []string{"admin", "viewer"}, nil, nil)
	if !cc.HasRole("admin") {
		t.Error("expected admin role present")
	}
	if cc.HasRole("owner") {
		t.Error("expected owner role absent")
	}
}

func TestCallerContextCloneIsIndependent(t *testing.T) {
	cc := NewCallerContext("", "", "alice", []string{"admin"}, []string{"g1"}, map[string]any{"k": "v"})
	cc.AddSyncTask(func() {})

	clone := cc.Clone()
	clone.Roles[0] = "mutated"
	clone.Ext["k"] = "changed"

	if cc.Roles[0] != "admin" {
		t.Errorf("expected original roles untouched, got %v", cc.Roles)
	}
	if cc.Ext["k"] != "v" {
		t.Errorf("expected original ext untouched, got %v", cc.Ext)
	}
}

func TestCallerContextRunDeferredTasks(t *testing.T) {
	cc := NewCallerContext("", "", "alice", nil, nil, nil)
	ran := false
	cc.AddSyncTask(func() { ran = true })

	done := make(chan struct{})
	cc.AddAsyncTask(func(ctx context.Context) { close(done) })

	cc.RunDeferredTasks(context.Background())

	if !ran {
		t.Error("expected sync task to run inline")
	}
	<-done

	if len(cc.syncTasks) != 0 || len(cc.asyncTasks) != 0 {
		t.Error("expected task queues drained after RunDeferredTasks")
	}
}
