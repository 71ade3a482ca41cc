package core

// Handler is the run-to-completion body of a task. It must not block.
type Handler func(th *Threshold)

// Task is an interrupt task descriptor: a handler bound to one interrupt
// source at a fixed priority, with a declared resource set.
type Task struct {
	app       *App
	name      string
	source    Source
	priority  Priority
	resources uint32
	handler   Handler
	state     TaskState
	th        Threshold

	invocations    uint32
	forcedReleases uint32
}

// Bind sets the task handler. Handlers are usually bound after the task's
// handles have been created with Use.
func (t *Task) Bind(h Handler) *Task {
	t.handler = h
	return t
}

func (t *Task) Name() string        { return t.name }
func (t *Task) Source() Source      { return t.source }
func (t *Task) Priority() Priority  { return t.priority }
func (t *Task) State() TaskState    { return t.state }
func (t *Task) Invocations() uint32 { return t.invocations }

// ForcedReleases counts lock scopes the handler left open on return.
func (t *Task) ForcedReleases() uint32 { return t.forcedReleases }

// Resources returns the names of the declared resources in declaration order.
func (t *Task) Resources() []string {
	var names []string
	for _, c := range t.app.cells[:t.app.ncells] {
		if t.resources&(uint32(1)<<c.id) != 0 {
			names = append(names, c.name)
		}
	}
	return names
}

// TaskTable is the static task registry, indexed by interrupt source.
type TaskTable struct {
	tasks    []*Task
	bySource [MaxSources]*Task
}

// Add appends t. Source conflicts are left for Build to report.
func (tt *TaskTable) Add(t *Task) {
	tt.tasks = append(tt.tasks, t)
	if t.source < MaxSources && tt.bySource[t.source] == nil {
		tt.bySource[t.source] = t
	}
}

// BySource returns the task bound to src. The controller entry of every
// source dispatches through it.
func (tt *TaskTable) BySource(src Source) (*Task, bool) {
	if src >= MaxSources {
		return nil, false
	}
	t := tt.bySource[src]
	return t, t != nil
}

// Count returns the number of registered tasks.
func (tt *TaskTable) Count() int {
	return len(tt.tasks)
}

// All returns the tasks in registration order.
func (tt *TaskTable) All() []*Task {
	return tt.tasks
}
