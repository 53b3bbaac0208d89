package corefx

import "context"

// CallerContext is the immutable per-request identity/tenancy record
// produced by webctx's extractor, cloned into handlers and never mutated
// after extraction (spec §3 "Caller Context"). Roles and Groups are ordered
// sequences; Ext is the only place handlers may stash per-call data.
type CallerContext struct {
	OwnPaths  string         `json:"own_paths"`
	AccessKey string         `json:"ak"`
	Owner     string         `json:"owner"`
	Roles     []string       `json:"roles"`
	Groups    []string       `json:"groups"`
	Ext       map[string]any `json:"ext"`

	syncTasks  []func()
	asyncTasks []func(context.Context)
}

// NewCallerContext builds a CallerContext from its constituent fields.
func NewCallerContext(ownPaths, accessKey, owner string, roles, groups []string, ext map[string]any) *CallerContext {
	if ext == nil {
		ext = map[string]any{}
	}
	return &CallerContext{
		OwnPaths:  ownPaths,
		AccessKey: accessKey,
		Owner:     owner,
		Roles:     roles,
		Groups:    groups,
		Ext:       ext,
	}
}

// HasRole reports whether role appears in the context's role list.
func (c *CallerContext) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AddSyncTask queues fn to run synchronously when RunDeferredTasks drains
// this context at the end of the request.
func (c *CallerContext) AddSyncTask(fn func()) {
	c.syncTasks = append(c.syncTasks, fn)
}

// AddAsyncTask queues fn to run, given a background context, when
// RunDeferredTasks drains this context.
func (c *CallerContext) AddAsyncTask(fn func(context.Context)) {
	c.asyncTasks = append(c.asyncTasks, fn)
}

// RunDeferredTasks drains the sync queue inline, then launches every async
// task in its own goroutine against ctx. Called by webctx.Middleware once the
// handler returns; a context with no queued tasks is a no-op.
func (c *CallerContext) RunDeferredTasks(ctx context.Context) {
	for _, fn := range c.syncTasks {
		fn()
	}
	c.syncTasks = nil
	for _, fn := range c.asyncTasks {
		go fn(ctx)
	}
	c.asyncTasks = nil
}

// Clone returns a shallow copy suitable for handing to a handler; the
// deferred-task queues start empty so tasks a handler queues aren't
// accidentally shared with another clone of the same context.
func (c *CallerContext) Clone() *CallerContext {
	ext := make(map[string]any, len(c.Ext))
	for k, v := range c.Ext {
		ext[k] = v
	}
	return &CallerContext{
		OwnPaths:  c.OwnPaths,
		AccessKey: c.AccessKey,
		Owner:     c.Owner,
		Roles:     append([]string(nil), c.Roles...),
		Groups:    append([]string(nil), c.Groups...),
		Ext:       ext,
	}
}
