package scheduler

import (
	"sort"
	"time"
)

// Virtual is a single-threaded fake scheduler and clock. Nothing runs until
// the test advances time.
type Virtual struct {
	now     time.Time
	seq     int
	pending []virtualTask
}

type virtualTask struct {
	at  time.Time
	seq int
	fn  func()
}

// NewVirtual creates a fake starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the virtual time.
func (v *Virtual) Now() time.Time { return v.now }

// After queues fn to run when virtual time reaches now+d.
func (v *Virtual) After(d time.Duration, fn func()) {
	v.seq++
	v.pending = append(v.pending, virtualTask{at: v.now.Add(d), seq: v.seq, fn: fn})
}

// Pending returns the number of queued tasks.
func (v *Virtual) Pending() int { return len(v.pending) }

// Advance moves time forward by d, running due tasks in deadline order.
// Tasks queued by those tasks run too if they fall due within d.
func (v *Virtual) Advance(d time.Duration) {
	deadline := v.now.Add(d)
	for {
		task, ok := v.next(deadline, true)
		if !ok {
			break
		}
		v.now = task.at
		task.fn()
	}
	v.now = deadline
}

// RunUntilIdle advances to each queued task until none remain or limit
// tasks have run. Returns the number of tasks run.
func (v *Virtual) RunUntilIdle(limit int) int {
	ran := 0
	for len(v.pending) > 0 && ran < limit {
		task, _ := v.next(time.Time{}, false)
		if task.at.After(v.now) {
			v.now = task.at
		}
		task.fn()
		ran++
	}
	return ran
}

// next pops the earliest task, or the earliest due by deadline when bounded.
func (v *Virtual) next(deadline time.Time, bounded bool) (virtualTask, bool) {
	if len(v.pending) == 0 {
		return virtualTask{}, false
	}
	sort.SliceStable(v.pending, func(i, j int) bool {
		if v.pending[i].at.Equal(v.pending[j].at) {
			return v.pending[i].seq < v.pending[j].seq
		}
		return v.pending[i].at.Before(v.pending[j].at)
	})
	task := v.pending[0]
	if bounded && task.at.After(deadline) {
		return virtualTask{}, false
	}
	v.pending = v.pending[1:]
	return task, true
}
