package session

import "time"

// Scheduler runs f once after d. The returned stop func cancels it and
// reports whether it was still pending.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// SystemScheduler schedules on the wall clock
var SystemScheduler Scheduler = systemScheduler{}

// DebounceExpired is posted when an armed debounce fires. Target is the value
// captured when it was armed.
type DebounceExpired struct {
	Token  uint64
	Target int
}

// Debouncer is a single shot timer with at most one pending fire. Arm, Cancel
// and Accept belong to the owning session; only post runs on the timer's
// goroutine.
type Debouncer struct {
	scheduler Scheduler
	post      func(DebounceExpired)
	token     uint64
	stop      func() bool
	pending   bool
}

// NewDebouncer creates a disarmed debouncer that delivers fires through post
func NewDebouncer(scheduler Scheduler, post func(DebounceExpired)) *Debouncer {
	if scheduler == nil {
		scheduler = SystemScheduler
	}
	return &Debouncer{scheduler: scheduler, post: post}
}

// Arm cancels any pending fire and schedules a new one for target
func (d *Debouncer) Arm(target int, delay time.Duration) {
	d.Cancel()
	d.token++
	ev, post := DebounceExpired{Token: d.token, Target: target}, d.post
	d.stop = d.scheduler.AfterFunc(delay, func() { post(ev) })
	d.pending = true
}

// Cancel disarms. Fires already queued by the scheduler are rejected by
// Accept afterwards.
func (d *Debouncer) Cancel() {
	if !d.pending {
		return
	}
	d.stop()
	d.stop = nil
	d.token++
	d.pending = false
}

// Pending reports whether a fire is scheduled and not yet accepted
func (d *Debouncer) Pending() bool {
	return d.pending
}

// Accept reports whether ev comes from the current arm, consuming it
func (d *Debouncer) Accept(ev DebounceExpired) bool {
	if !d.pending || ev.Token != d.token {
		return false
	}
	d.pending = false
	d.stop = nil
	return true
}
