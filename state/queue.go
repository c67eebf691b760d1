package state

// taskQueue is the handle-owned deferred-work queue standing in for a host
// microtask queue. Invalidated computed properties schedule their recompute
// here; the handle drains it on Flush. Draining continues until the queue is
// empty so that recomputes which trigger further invalidations settle within
// a single flush. A drain started while another is in progress is a no-op,
// which keeps a Flush call from inside a subscriber callback from recursing.
type taskQueue struct {
	tasks    []func()
	draining bool
}

func newTaskQueue() *taskQueue {
	return &taskQueue{}
}

func (q *taskQueue) schedule(task func()) {
	q.tasks = append(q.tasks, task)
}

func (q *taskQueue) len() int {
	return len(q.tasks)
}

func (q *taskQueue) drain() {
	if q.draining {
		return
	}
	q.draining = true
	defer func() { q.draining = false }()

	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		task()
	}
}

func (q *taskQueue) clear() {
	q.tasks = nil
}
