package core

// Threshold is the execution context handed to a task handler. It tracks the
// effective priority of the running invocation and the stack of open lock
// scopes. Each task owns exactly one Threshold, so claiming never allocates.
type Threshold struct {
	app    *App
	task   *Task
	level  Priority
	active bool
	depth  uint8
	gen    uint32
	stack  [MaxNesting]scopeFrame
}

type scopeFrame struct {
	mask      uint32
	prevLevel Priority
	prevMask  Priority
	raised    bool
	open      bool
	gen       uint32
}

// Scope is a claimed set of resources. Release it with defer right after a
// successful Claim.
type Scope struct {
	th    *Threshold
	depth uint8
	gen   uint32
}

// Level returns the current effective priority.
func (th *Threshold) Level() Priority {
	return th.level
}

// Task returns the task this threshold belongs to.
func (th *Threshold) Task() *Task {
	return th.task
}

// Claim raises the effective priority to the highest ceiling among hs and
// grants exclusive access to their contents until the returned Scope is
// released. Tasks at or below that ceiling stay pending meanwhile.
func (th *Threshold) Claim(hs ...Lockable) (Scope, error) {
	if th == nil || !th.active {
		return Scope{}, ErrScopeExpired
	}
	if int(th.depth) >= MaxNesting {
		return Scope{}, ErrNestingDepth
	}

	var mask uint32
	ceiling := th.level
	for _, h := range hs {
		c, owner := h.lockCell()
		if owner != th.task {
			return Scope{}, ErrForeignHandle
		}
		bit := uint32(1) << c.id
		if c.held || mask&bit != 0 {
			return Scope{}, ErrAlreadyHeld
		}
		mask |= bit
		if c.ceiling > ceiling {
			ceiling = c.ceiling
		}
	}

	th.gen++
	f := &th.stack[th.depth]
	*f = scopeFrame{
		mask:      mask,
		prevLevel: th.level,
		open:      true,
		gen:       th.gen,
	}
	if ceiling > th.level {
		f.prevMask = th.app.ctl.Mask(ceiling)
		f.raised = true
		th.level = ceiling
	}
	th.app.markHeld(mask, true)

	s := Scope{th: th, depth: th.depth, gen: th.gen}
	th.depth++
	RecordEvent(EvtClaim, th.task.source, th.level, mask)
	return s, nil
}

// Release restores the priority that was in effect before the claim. Pending
// tasks above the restored level run before Release returns. Releasing an
// outer scope also releases the scopes nested in it. Release is idempotent.
func (s Scope) Release() {
	th := s.th
	if th == nil || s.depth >= th.depth {
		return
	}
	f := &th.stack[s.depth]
	if !f.open || f.gen != s.gen {
		return
	}
	for th.depth > s.depth {
		th.pop()
	}
}

// Held reports whether the scope is still open.
func (s Scope) Held() bool {
	th := s.th
	if th == nil || s.depth >= th.depth {
		return false
	}
	f := &th.stack[s.depth]
	return f.open && f.gen == s.gen
}

func (s Scope) check(c *cell, owner *Task) {
	if !s.Held() {
		panic("core: resource " + c.name + " borrowed through a released scope")
	}
	if owner != s.th.task || s.th.stack[s.depth].mask&(uint32(1)<<c.id) == 0 {
		panic("core: resource " + c.name + " not claimed by this scope")
	}
}

// pop closes the innermost scope. The cells are marked free and the level
// restored before unmasking, because unmasking may run a pending task that
// claims the same cells.
func (th *Threshold) pop() {
	th.depth--
	f := &th.stack[th.depth]
	f.open = false
	th.app.markHeld(f.mask, false)
	th.level = f.prevLevel
	RecordEvent(EvtRelease, th.task.source, th.level, f.mask)
	if f.raised {
		th.app.ctl.Unmask(f.prevMask)
	}
}
