package core

// cell is the type-independent part of a Resource.
type cell struct {
	app     *App
	name    string
	id      uint8
	ceiling Priority
	held    bool
	users   []*Task
}

// Name returns the resource name.
func (c *cell) Name() string { return c.name }

// Ceiling returns the resource ceiling. For CeilingAuto resources the value
// is only final after Build.
func (c *cell) Ceiling() Priority { return c.ceiling }

// required is the lowest ceiling that satisfies every user of the cell.
func (c *cell) required() Priority {
	var p Priority
	for _, t := range c.users {
		if t.priority > p {
			p = t.priority
		}
	}
	return p
}

// Resource is a statically allocated cell of shared state guarded by a
// priority ceiling. The value is only reachable through a Handle borrowed
// inside a lock Scope.
type Resource[T any] struct {
	cell
	value T
}

// NewResource declares a resource on app. It must be called during
// initialization, before Build.
func NewResource[T any](app *App, name string, ceiling Priority, value T) *Resource[T] {
	r := &Resource[T]{
		cell:  cell{app: app, name: name, ceiling: ceiling},
		value: value,
	}
	app.addCell(&r.cell)
	return r
}

// Lockable is implemented by handles that a Threshold can claim.
type Lockable interface {
	lockCell() (*cell, *Task)
}

// Handle is a task's capability to claim one resource. The only way to get
// one is Use, which adds the resource to the task's declared set.
type Handle[T any] struct {
	res  *Resource[T]
	task *Task
}

// Use declares that task t accesses r and returns the handle t claims it
// with. Build checks the ceiling against the task priority.
func Use[T any](t *Task, r *Resource[T]) *Handle[T] {
	t.app.declare(t, &r.cell)
	return &Handle[T]{res: r, task: t}
}

func (h *Handle[T]) lockCell() (*cell, *Task) {
	return &h.res.cell, h.task
}

// Resource returns the resource the handle refers to.
func (h *Handle[T]) Resource() *Resource[T] {
	return h.res
}

// Borrow returns the resource contents for the lifetime of scope s. It panics
// if s does not hold the resource; that is a programming error, never a
// runtime condition.
func (h *Handle[T]) Borrow(s Scope) *T {
	s.check(&h.res.cell, h.task)
	return &h.res.value
}

// Lock claims the resource, runs fn with its contents and releases it on
// every exit path.
func (h *Handle[T]) Lock(th *Threshold, fn func(v *T)) error {
	s, err := th.Claim(h)
	if err != nil {
		return err
	}
	defer s.Release()
	fn(&h.res.value)
	return nil
}
