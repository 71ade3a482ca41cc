package core

import (
	"context"
	"errors"
	"math/bits"
)

// App is the dispatcher context: every resource, task and the interrupt
// controller they run on. It is built once during initialization and lives
// for the rest of the process.
type App struct {
	ctl    Controller
	cells  [MaxResources]*cell
	ncells int
	tasks  TaskTable
	idle   *Task
	errs   []error

	built   bool
	started bool
	err     error
}

// NewApp creates an empty app on ctl. Most callers use Initialize instead.
func NewApp(ctl Controller) *App {
	return &App{ctl: ctl}
}

// Initialize runs the initialization phase: setup declares resources and
// tasks with every interrupt masked, then the configuration is verified.
// No task can run before Initialize returns a built app.
func Initialize(ctl Controller, setup func(a *App) error) (*App, error) {
	a := NewApp(ctl)

	state := disableInterrupts()
	defer restoreInterrupts(state)

	if err := setup(a); err != nil {
		return nil, err
	}
	if err := a.Build(); err != nil {
		return nil, err
	}
	return a, nil
}

// Controller returns the interrupt controller the app dispatches on.
func (a *App) Controller() Controller {
	return a.ctl
}

// Task registers an interrupt task bound to src at priority prio.
func (a *App) Task(name string, src Source, prio Priority) *Task {
	t := &Task{app: a, name: name, source: src, priority: prio}
	t.th = Threshold{app: a, task: t}
	if a.built {
		a.fail(&ConfigError{Task: name, Err: ErrSealed})
		return t
	}
	a.tasks.Add(t)
	return t
}

// Idle registers the idle task. Its handler runs at IdlePriority between
// waits for the next interrupt and claims resources like any other task.
func (a *App) Idle(name string) *Task {
	t := &Task{app: a, name: name, source: NoSource, priority: IdlePriority}
	t.th = Threshold{app: a, task: t}
	if a.built {
		a.fail(&ConfigError{Task: name, Err: ErrSealed})
		return t
	}
	a.idle = t
	return t
}

// Tasks returns the task registry.
func (a *App) Tasks() *TaskTable {
	return &a.tasks
}

// IdleTask returns the idle task, or nil when none was declared.
func (a *App) IdleTask() *Task {
	return a.idle
}

func (a *App) fail(err error) {
	a.errs = append(a.errs, err)
}

func (a *App) addCell(c *cell) {
	switch {
	case a.built:
		a.fail(&ConfigError{Resource: c.name, Err: ErrSealed})
	case a.ncells >= MaxResources:
		a.fail(&ConfigError{Resource: c.name, Err: ErrTooManyResources})
	default:
		c.id = uint8(a.ncells)
		a.cells[a.ncells] = c
		a.ncells++
	}
}

func (a *App) declare(t *Task, c *cell) {
	switch {
	case a.built:
		a.fail(&ConfigError{Task: t.name, Resource: c.name, Err: ErrSealed})
	case c.app != a || t.app != a || a.cells[c.id] != c:
		a.fail(&ConfigError{Task: t.name, Resource: c.name, Err: ErrForeignResource})
	default:
		bit := uint32(1) << c.id
		if t.resources&bit == 0 {
			t.resources |= bit
			c.users = append(c.users, t)
		}
	}
}

func (a *App) markHeld(mask uint32, held bool) {
	for mask != 0 {
		id := bits.TrailingZeros32(mask)
		mask &^= uint32(1) << id
		a.cells[id].held = held
	}
}

// Build verifies the whole task set once, before interrupts are enabled:
// every priority and ceiling is in range, every source is bound once, every
// task has a handler, and every resource a task uses has a ceiling at or
// above the task's priority. Build binds the tasks to the controller only
// when all checks pass.
func (a *App) Build() error {
	if a.built {
		return &ConfigError{Err: ErrSealed}
	}
	a.built = true
	errs := a.errs
	levels := a.ctl.Levels()

	for _, c := range a.cells[:a.ncells] {
		if c.ceiling == CeilingAuto {
			c.ceiling = c.required()
		}
		if c.ceiling > levels {
			errs = append(errs, &ConfigError{Resource: c.name, Err: ErrCeilingRange})
		}
	}

	var bound uint32
	for _, t := range a.tasks.All() {
		switch {
		case t.source >= MaxSources:
			errs = append(errs, &ConfigError{Task: t.name, Err: ErrSourceRange})
		case bound&(uint32(1)<<t.source) != 0:
			errs = append(errs, &ConfigError{Task: t.name, Err: ErrDuplicateSource})
		default:
			bound |= uint32(1) << t.source
		}
		if t.priority == IdlePriority || t.priority > levels {
			errs = append(errs, &ConfigError{Task: t.name, Err: ErrPriorityRange})
		}
		errs = a.checkTask(t, errs)
	}
	if a.idle != nil {
		errs = a.checkTask(a.idle, errs)
	}

	if err := errors.Join(errs...); err != nil {
		a.err = err
		return err
	}

	for _, t := range a.tasks.All() {
		src := t.source
		if err := a.ctl.Configure(src, t.priority, func() { a.dispatch(src) }); err != nil {
			a.err = &ConfigError{Task: t.name, Err: err}
			return a.err
		}
	}

	for _, r := range a.Report() {
		if r.Ceiling > r.Required {
			DebugPrintln("[rtfm] resource " + r.Resource + " ceiling " + itoa(int(r.Ceiling)) +
				" above required " + itoa(int(r.Required)))
		}
	}
	return nil
}

func (a *App) checkTask(t *Task, errs []error) []error {
	if t.handler == nil {
		errs = append(errs, &ConfigError{Task: t.name, Err: ErrNoHandler})
	}
	for _, c := range a.cells[:a.ncells] {
		if t.resources&(uint32(1)<<c.id) != 0 && c.ceiling < t.priority {
			errs = append(errs, &ConfigError{Task: t.name, Resource: c.name, Err: ErrCeilingTooLow})
		}
	}
	return errs
}

// Start enables the interrupt line of every task. After Start, hardware
// events dispatch tasks.
func (a *App) Start() error {
	if !a.built {
		return ErrNotBuilt
	}
	if a.err != nil {
		return a.err
	}
	if len(a.errs) > 0 {
		// Declarations made after Build.
		return errors.Join(a.errs...)
	}
	if a.started {
		return nil
	}
	a.started = true
	for _, t := range a.tasks.All() {
		a.ctl.Enable(t.source)
	}
	DebugPrintln("[rtfm] started " + itoa(a.tasks.Count()) + " tasks")
	return nil
}

// Run starts the app and becomes the idle loop: run the idle handler, then
// wait for the next interrupt. It returns only when ctx is done or the
// controller fails; on device it never returns.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}
	for {
		if a.idle != nil {
			a.invoke(a.idle)
		}
		if err := a.ctl.Wait(ctx); err != nil {
			return err
		}
		RecordEvent(EvtIdle, NoSource, IdlePriority, 0)
	}
}

// dispatch is the controller entry point for an interrupt line: it looks the
// task up in the source-indexed table and runs it.
func (a *App) dispatch(src Source) {
	if t, ok := a.tasks.BySource(src); ok {
		a.invoke(t)
	}
}

func (a *App) invoke(t *Task) {
	th := &t.th
	th.level = t.priority
	th.active = true
	t.state = TaskRunning
	t.invocations++
	RecordEvent(EvtTaskEnter, t.source, t.priority, t.invocations)
	defer a.finish(t)
	t.handler(th)
}

// finish closes scopes the handler leaked so the mask never outlives the
// invocation.
func (a *App) finish(t *Task) {
	th := &t.th
	for th.depth > 0 {
		t.forcedReleases++
		RecordEvent(EvtForcedRelease, t.source, th.level, th.stack[th.depth-1].mask)
		th.pop()
	}
	th.active = false
	t.state = TaskIdle
	RecordEvent(EvtTaskExit, t.source, t.priority, t.invocations)
}

// CeilingReport describes one resource for diagnostics.
type CeilingReport struct {
	Resource string
	Ceiling  Priority
	Required Priority
	Users    []string
}

// Report lists every resource with its ceiling, the minimum ceiling its users
// require and the names of those users.
func (a *App) Report() []CeilingReport {
	out := make([]CeilingReport, 0, a.ncells)
	for _, c := range a.cells[:a.ncells] {
		r := CeilingReport{Resource: c.name, Ceiling: c.ceiling, Required: c.required()}
		for _, t := range c.users {
			r.Users = append(r.Users, t.name)
		}
		out = append(out, r)
	}
	return out
}
