package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	repo "github.com/oshokin/alarm-clock/internal/repository/state"
	"github.com/oshokin/alarm-clock/internal/service/notify"
	"github.com/oshokin/alarm-clock/internal/service/permission"
	"github.com/oshokin/alarm-clock/internal/service/power"
)

var errInjected = errors.New("injected failure")

// journal records the order in which collaborators were used.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(event string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events = append(j.events, event)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]string(nil), j.events...)
}

// fakeClock is a settable wall clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *fakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = t
}

// fakeScheduler keeps the single pending request.
type fakeScheduler struct {
	mu        sync.Mutex
	pending   *domain.Payload
	at        time.Time
	scheduled int
	err       error
}

func (f *fakeScheduler) Schedule(at time.Time, payload domain.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.scheduled++
	f.pending = &payload
	f.at = at

	return nil
}

func (f *fakeScheduler) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = nil
}

func (f *fakeScheduler) Pending() (domain.Payload, time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pending == nil {
		return domain.Payload{}, time.Time{}, false
	}

	return *f.pending, f.at, true
}

// take removes and returns the pending payload, like a delivery would.
func (f *fakeScheduler) take(t *testing.T) domain.Payload {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotNil(t, f.pending, "nothing scheduled")

	payload := *f.pending
	f.pending = nil

	return payload
}

// fakeLock counts releases.
type fakeLock struct {
	mu       sync.Mutex
	releases int
}

func (l *fakeLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.releases++

	return nil
}

func (l *fakeLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.releases == 0
}

func (l *fakeLock) Releases() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.releases
}

// fakeWake hands out fakeLocks.
type fakeWake struct {
	journal *journal
	mu      sync.Mutex
	locks   []*fakeLock
	timeout time.Duration
	err     error
}

func (f *fakeWake) Acquire(_ context.Context, timeout time.Duration) (power.Lock, error) {
	f.journal.add("wake")

	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	lock := new(fakeLock)
	f.locks = append(f.locks, lock)
	f.timeout = timeout

	return lock, nil
}

func (f *fakeWake) last(t *testing.T) *fakeLock {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.locks)

	return f.locks[len(f.locks)-1]
}

// fakePlayback counts stops.
type fakePlayback struct {
	mu    sync.Mutex
	stops int
}

func (p *fakePlayback) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stops++

	return nil
}

func (p *fakePlayback) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stops
}

// fakeSound starts fakePlaybacks, fails or panics.
type fakeSound struct {
	journal   *journal
	err       error
	panics    bool
	hang      chan struct{}
	mu        sync.Mutex
	playbacks []*fakePlayback
	refs      []string
}

func (f *fakeSound) Play(_ context.Context, ref string) (Playback, error) {
	f.journal.add("sound")

	if f.panics {
		panic("audio device exploded")
	}

	if f.err != nil {
		return nil, f.err
	}

	// A hung device ignores the context.
	if f.hang != nil {
		<-f.hang
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	playback := new(fakePlayback)
	f.playbacks = append(f.playbacks, playback)
	f.refs = append(f.refs, ref)

	return playback, nil
}

func (f *fakeSound) last(t *testing.T) *fakePlayback {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.playbacks)

	return f.playbacks[len(f.playbacks)-1]
}

// fakePresentation counts closes.
type fakePresentation struct {
	mu     sync.Mutex
	closes int
}

func (p *fakePresentation) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closes++

	return nil
}

func (p *fakePresentation) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closes
}

// fakePresenter keeps the alerts and their dismiss callbacks.
type fakePresenter struct {
	journal       *journal
	err           error
	mu            sync.Mutex
	alerts        []notify.Alert
	onDismiss     []func()
	presentations []*fakePresentation
}

func (f *fakePresenter) Present(_ context.Context, alert notify.Alert, onDismiss func()) (notify.Presentation, error) {
	f.journal.add("present")

	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	p := new(fakePresentation)
	f.alerts = append(f.alerts, alert)
	f.onDismiss = append(f.onDismiss, onDismiss)
	f.presentations = append(f.presentations, p)

	return p, nil
}

func (f *fakePresenter) last(t *testing.T) (*fakePresentation, func()) {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.presentations)

	return f.presentations[len(f.presentations)-1], f.onDismiss[len(f.onDismiss)-1]
}

// fakeGate denies the listed capabilities.
type fakeGate struct {
	denied map[permission.Capability]bool
	refs   []string
}

func (f *fakeGate) Check(_ context.Context, capability permission.Capability, ref string) error {
	if capability == permission.AudioAccess {
		f.refs = append(f.refs, ref)
	}

	if f.denied[capability] {
		return domain.ErrPermissionDenied
	}

	return nil
}

// memRepository keeps the record in memory.
type memRepository struct {
	mu      sync.Mutex
	record  *domain.Record
	saves   int
	saveErr error
	loadErr error
}

func (m *memRepository) Load(context.Context) (*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}

	if m.record == nil {
		return nil, repo.ErrNotFound
	}

	return m.record.Clone(), nil
}

func (m *memRepository) Save(_ context.Context, record *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}

	m.saves++
	m.record = record.Clone()

	return nil
}

func (m *memRepository) Record() *domain.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.record.Clone()
}

// harness wires a controller to fakes.
type harness struct {
	controller *Controller
	clock      *fakeClock
	journal    *journal
	scheduler  *fakeScheduler
	wake       *fakeWake
	sound      *fakeSound
	presenter  *fakePresenter
	gate       *fakeGate
	repo       *memRepository
	ids        int
}

// newHarness builds a controller whose clock starts at now.
func newHarness(t *testing.T, now time.Time, configure func(h *harness, opts *Options)) *harness {
	t.Helper()

	j := new(journal)
	h := &harness{
		clock:     &fakeClock{now: now},
		journal:   j,
		scheduler: new(fakeScheduler),
		wake:      &fakeWake{journal: j},
		sound:     &fakeSound{journal: j},
		presenter: &fakePresenter{journal: j},
		gate:      &fakeGate{denied: make(map[permission.Capability]bool)},
		repo:      new(memRepository),
	}

	opts := Options{
		RearmOnFire: true,
		Now:         h.clock.Now,
		NewID: func() string {
			h.ids++

			return fmt.Sprintf("id-%d", h.ids)
		},
	}

	if configure != nil {
		configure(h, &opts)
	}

	c, err := New(Dependencies{
		Repository: h.repo,
		Scheduler:  h.scheduler,
		Wake:       h.wake,
		Sound:      h.sound,
		Presenter:  h.presenter,
		Gate:       h.gate,
	}, opts)
	require.NoError(t, err)

	h.controller = c

	return h
}
