package cache

// HookPos names a site in the cache where hooks are invoked.
type HookPos struct {
	Name string
}

// HookPosAccess marks the completion of an access. The hook detail is an
// AccessRecord.
var HookPosAccess = &HookPos{Name: "Access"}

// HookCtx is the information that a hook receives when it is invoked.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Detail any
}

// Hook is a piece of program that is triggered by a hookable object.
type Hook interface {
	Func(ctx HookCtx)
}

// Hookable defines an object that accepts hooks.
type Hookable interface {
	Name() string
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
}

// HookableBase provides the bookkeeping for types that implement Hookable.
type HookableBase struct {
	hookList []Hook
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns all the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	for _, existing := range h.hookList {
		if existing == hook {
			panic("duplicated hook")
		}
	}

	h.hookList = append(h.hookList, hook)
}

// InvokeHook triggers all the registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}

// AccessRecord describes how the cache handled one access.
type AccessRecord struct {
	Seq      uint64
	Addr     uint64
	Type     AccessType
	IsFill   bool
	SetIndex uint64
	Tag      uint64
	Way      int
	Hit      bool

	// Evicted is set when a valid line was replaced by the refill.
	Evicted    bool
	EvictedTag uint64
	Writeback  bool
}
