package eventing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/linkdata/deadlock"
	"golang.org/x/sync/errgroup"

	"github.com/tatimblin/sonos-local-controller/pkg/log"
	"github.com/tatimblin/sonos-local-controller/pkg/model"
	"github.com/tatimblin/sonos-local-controller/pkg/services"
	"github.com/tatimblin/sonos-local-controller/pkg/state"
	"github.com/tatimblin/sonos-local-controller/pkg/upnp"
)

// subscribeConcurrency bounds the initial subscription fan-out.
const subscribeConcurrency = 4

// Manager owns the subscription registry, the callback receiver, the
// renewal scheduler and the dispatcher. It is created once, started
// with a device roster, and stopped when event coverage is no longer
// needed.
type Manager struct {
	cfg    Config
	client *upnp.Client
	cache  *state.Cache
	logger log.Logger

	registry *registry
	stream   *Stream
	receiver *receiver
	raw      chan rawNotification

	running atomic.Bool
	cancel  context.CancelFunc
	loopWG  sync.WaitGroup // scheduler + dispatcher
	renewWG sync.WaitGroup // in-flight renewals

	mu      deadlock.RWMutex
	devices map[model.DeviceID]model.Device
}

// NewManager validates the configuration and creates a stopped manager.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		cfg:      cfg,
		client:   upnp.NewClient(cfg.AttemptTimeout),
		cache:    state.NewCache(),
		logger:   cfg.logger(),
		registry: newRegistry(),
		devices:  make(map[model.DeviceID]model.Device),
	}, nil
}

// Start binds the callback receiver, establishes initial subscriptions
// for every enabled service, and launches the renewal scheduler and the
// dispatcher. The context bounds the initial fan-out only; background
// loops run until Stop.
//
// Individual subscription failures do not abort startup; they surface
// through the stream and the lifecycle callback. Only configuration and
// initialization problems (no free port, empty roster) are returned.
func (m *Manager) Start(ctx context.Context, roster model.Roster) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if len(roster.Devices) == 0 {
		m.running.Store(false)
		return ErrEmptyRoster
	}

	m.raw = make(chan rawNotification, m.cfg.BufferSize)
	m.stream = newStream(m.cfg.BufferSize, m.cfg.PushTimeout)

	rc, err := newReceiver(&m.cfg, m.registry, m.raw, m.logger)
	if err != nil {
		m.running.Store(false)
		return err
	}
	m.receiver = rc

	m.mu.Lock()
	m.devices = make(map[model.DeviceID]model.Device, len(roster.Devices))
	for _, d := range roster.Devices {
		m.devices[d.ID] = d
	}
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	if roster.Topology != nil {
		m.cache.SetTopology(*roster.Topology)
	}

	if rc.fallback {
		m.lifecycle(LifecycleEvent{
			Kind:    LifecycleCallbackFallback,
			Message: "no reachable callback address detected, using 127.0.0.1",
		})
		m.logger.Log(log.Event{
			Timestamp: time.Now(),
			Category:  log.CategoryLifecycle,
			Error:     &log.ErrorEventData{Message: "callback host fell back to loopback", Context: "receiver"},
		})
	}
	rc.start()

	// Initial fan-out. Per-device services get one lease per device;
	// the topology service gets a single lease carried by the first
	// roster device, since every device reports the same snapshot.
	g, subCtx := errgroup.WithContext(ctx)
	g.SetLimit(subscribeConcurrency)
	for _, st := range m.cfg.services() {
		svc, err := services.ForType(st)
		if err != nil {
			cancel()
			m.running.Store(false)
			return err
		}
		switch st.Scope() {
		case model.ScopeNetworkWide:
			device := roster.Devices[0]
			g.Go(func() error {
				m.establish(subCtx, device, svc)
				return nil
			})
		default:
			for _, device := range roster.Devices {
				device := device
				g.Go(func() error {
					m.establish(subCtx, device, svc)
					return nil
				})
			}
		}
	}
	_ = g.Wait()

	m.loopWG.Add(2)
	go m.renewalLoop(runCtx)
	go m.dispatchLoop()

	m.lifecycle(LifecycleEvent{Kind: LifecycleStarted, Message: fmt.Sprintf("receiver bound on %s:%d", rc.host, rc.port)})
	return nil
}

// Stop tears the subsystem down: the receiver stops accepting
// notifications, background loops exit, remaining leases are released
// best effort, and the stream terminates. After Stop returns no further
// state changes are emitted.
func (m *Manager) Stop() error {
	if !m.running.CompareAndSwap(true, false) {
		return ErrNotRunning
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = m.receiver.shutdown(shutdownCtx)

	m.cancel()
	m.renewWG.Wait()

	// The receiver is down and renewals have drained, so nothing
	// produces into raw anymore.
	close(m.raw)
	m.loopWG.Wait()

	for _, sub := range m.registry.list() {
		status := sub.Status()
		if status == StatusActive || status == StatusRenewing {
			lease := sub.Lease()
			if lease.SID != "" {
				unsubCtx, cancelUnsub := context.WithTimeout(context.Background(), m.cfg.AttemptTimeout)
				err := m.client.Unsubscribe(unsubCtx, sub.device.Endpoint, sub.service.EventPath(), lease.SID)
				cancelUnsub()
				m.logSubscription(sub, log.CategoryUnsubscribe, status, StatusTerminated, 0, nil, errString(err))
			}
		}
		sub.setStatus(StatusTerminated)
		m.registry.remove(sub)
	}

	m.stream.Close()
	m.lifecycle(LifecycleEvent{Kind: LifecycleStopped})
	return nil
}

// Events returns the stream of state changes. The same stream instance
// is returned for the lifetime of one Start/Stop cycle.
func (m *Manager) Events() *Stream {
	return m.stream
}

// DeviceState returns the cached state for one device.
func (m *Manager) DeviceState(id model.DeviceID) (model.DeviceState, bool) {
	return m.cache.Device(id)
}

// Topology returns the cached topology snapshot.
func (m *Manager) Topology() (model.Topology, bool) {
	return m.cache.Topology()
}

// Statuses returns a snapshot of every registered subscription.
func (m *Manager) Statuses() []SubscriptionStatus {
	subs := m.registry.list()
	out := make([]SubscriptionStatus, 0, len(subs))
	for _, sub := range subs {
		out = append(out, sub.snapshot())
	}
	return out
}

// Counts returns how many registered subscriptions are in each status.
func (m *Manager) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, sub := range m.registry.list() {
		counts[sub.Status()]++
	}
	return counts
}

// Resubscribe re-establishes a Failed (device, service) pair, or
// creates coverage for a known device the manager skipped earlier.
// Live subscriptions are refused with ErrNotFailed.
func (m *Manager) Resubscribe(ctx context.Context, id model.DeviceID, st model.ServiceType) error {
	if !m.running.Load() {
		return ErrNotRunning
	}

	key := Key{Device: id, Service: st}
	if sub, ok := m.registry.lookupKey(key); ok {
		if sub.Status() != StatusFailed {
			return ErrNotFailed
		}
		m.registry.remove(sub)
	} else {
		m.mu.RLock()
		_, known := m.devices[id]
		m.mu.RUnlock()
		if !known {
			return ErrUnknownSubscription
		}
	}

	m.mu.RLock()
	device := m.devices[id]
	m.mu.RUnlock()

	svc, err := services.ForType(st)
	if err != nil {
		return err
	}
	return m.establish(ctx, device, svc)
}

// establish creates a registry entry and attempts the initial lease
// with retry and backoff. A 503 identifies a satellite speaker: the
// entry is withdrawn without being marked Failed, since no lease will
// ever succeed there.
func (m *Manager) establish(ctx context.Context, device model.Device, svc services.Service) error {
	key := Key{Device: device.ID, Service: svc.Type()}
	sub := newSubscription(key, device, svc, uuid.NewString())
	m.registry.add(sub)

	var lastErr error
	for attempt := 0; attempt < m.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			if !sleepCtx(ctx, backoffDelay(m.cfg.RetryBackoff, attempt-1)) {
				break
			}
		}

		lease, err := m.client.Subscribe(ctx, device.Endpoint, svc.EventPath(),
			m.receiver.callbackURL(sub.token), m.cfg.LeaseDuration)
		if err == nil {
			sub.activate(lease)
			m.logSubscription(sub, log.CategorySubscribe, StatusPending, StatusActive, attempt, &lease.Granted, "")
			return nil
		}
		lastErr = err

		if errors.Is(err, upnp.ErrDeviceBusy) {
			m.registry.remove(sub)
			m.lifecycle(LifecycleEvent{
				Kind:    LifecycleSubscriptionSkipped,
				Device:  device.ID,
				Service: svc.Type(),
				Message: "device refused subscription, likely a bonded satellite",
			})
			m.logSubscription(sub, log.CategorySubscribe, StatusPending, StatusTerminated, attempt, nil, "refused with 503")
			m.stream.push(model.NewSubscriptionNotice(device.ID, model.SubscriptionNotice{
				Service: svc.Type(),
				Fatal:   false,
				Reason:  "device refused subscription (503)",
			}))
			return err
		}
	}

	m.markFailed(sub, log.CategorySubscribe, lastErr)
	return lastErr
}

// renewalLoop is the single scheduler: it scans the registry on every
// tick and claims due subscriptions by moving them to Renewing. The
// renewal itself runs in a short-lived goroutine so one slow device
// never stalls the scan.
func (m *Manager) renewalLoop(ctx context.Context) {
	defer m.loopWG.Done()

	ticker := time.NewTicker(m.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := time.Now()
		for _, sub := range m.registry.list() {
			if !sub.dueForRenewal(m.cfg.RenewalMargin, now) {
				continue
			}
			if !sub.transition(StatusActive, StatusRenewing) {
				continue
			}
			m.renewWG.Add(1)
			go func(sub *subscription) {
				defer m.renewWG.Done()
				m.renew(ctx, sub)
			}(sub)
		}
	}
}

// renew drives one renewal with retry and backoff. A rejected renewal
// (the device no longer knows the SID) falls back to a fresh subscribe
// on the same callback token.
func (m *Manager) renew(ctx context.Context, sub *subscription) {
	var lastErr error
	for attempt := 0; attempt < m.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			if !sleepCtx(ctx, backoffDelay(m.cfg.RetryBackoff, attempt-1)) {
				return
			}
		}

		lease, err := m.client.Renew(ctx, sub.device.Endpoint, sub.service.EventPath(),
			sub.Lease().SID, m.cfg.LeaseDuration)
		if err == nil {
			sub.renewed(lease)
			m.logSubscription(sub, log.CategoryRenew, StatusRenewing, StatusActive, attempt, &lease.Granted, "")
			return
		}
		lastErr = err

		var statusErr *upnp.StatusError
		if errors.As(err, &statusErr) {
			// The device dropped the lease. Start a fresh one; the
			// callback token stays the same so delivery resumes on the
			// existing route.
			lease, err = m.client.Subscribe(ctx, sub.device.Endpoint, sub.service.EventPath(),
				m.receiver.callbackURL(sub.token), m.cfg.LeaseDuration)
			if err == nil {
				sub.activate(lease)
				m.logSubscription(sub, log.CategoryRenew, StatusRenewing, StatusActive, attempt, &lease.Granted, "re-established")
				return
			}
			lastErr = err
		}

		if ctx.Err() != nil {
			return
		}
	}

	m.markFailed(sub, log.CategoryRenew, lastErr)
}

// markFailed records the terminal Failed state and surfaces it through
// every reporting channel. No other subscription is touched.
func (m *Manager) markFailed(sub *subscription, category log.Category, cause error) {
	prev := sub.setStatus(StatusFailed)
	reason := errString(cause)

	m.logSubscription(sub, category, prev, StatusFailed, m.cfg.RetryAttempts, nil, reason)
	m.lifecycle(LifecycleEvent{
		Kind:    LifecycleSubscriptionFailed,
		Device:  sub.key.Device,
		Service: sub.key.Service,
		Message: reason,
	})
	m.stream.push(model.NewSubscriptionNotice(sub.key.Device, model.SubscriptionNotice{
		Service: sub.key.Service,
		Fatal:   true,
		Reason:  reason,
	}))
}

// dispatchLoop consumes raw notifications in arrival order. One
// goroutine keeps per-lease ordering without any further coordination.
func (m *Manager) dispatchLoop() {
	defer m.loopWG.Done()
	for n := range m.raw {
		m.dispatch(n)
	}
}

func (m *Manager) dispatch(n rawNotification) {
	sub, ok := m.registry.lookupToken(n.token)
	if !ok {
		return
	}

	if !sub.admitSeq(n.seq) {
		m.logger.Log(log.Event{
			Timestamp:  n.received,
			Category:   log.CategoryNotify,
			DeviceID:   sub.key.Device.String(),
			Service:    sub.key.Service.String(),
			SID:        sub.Lease().SID,
			RemoteAddr: n.remoteAddr,
			Notify:     &log.NotifyEvent{Seq: n.seq, Size: len(n.body), Stale: true},
		})
		return
	}

	vars, err := upnp.ParsePropertySet(n.body)
	if err != nil {
		m.parseDiagnostic(sub, err)
		return
	}

	changes, err := sub.service.Parse(sub.key.Device, vars)
	if err != nil {
		m.parseDiagnostic(sub, err)
		return
	}

	for _, change := range changes {
		m.cache.Apply(change)
		m.stream.push(change)
	}
}

// parseDiagnostic reports a malformed payload. The lease stays Active;
// the problem is scoped to this one notification.
func (m *Manager) parseDiagnostic(sub *subscription, cause error) {
	m.logger.Log(log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryParse,
		DeviceID:  sub.key.Device.String(),
		Service:   sub.key.Service.String(),
		SID:       sub.Lease().SID,
		Error:     &log.ErrorEventData{Message: cause.Error(), Context: "dispatch"},
	})
	m.stream.push(model.NewSubscriptionNotice(sub.key.Device, model.SubscriptionNotice{
		Service: sub.key.Service,
		Fatal:   false,
		Reason:  cause.Error(),
	}))
}

func (m *Manager) lifecycle(event LifecycleEvent) {
	if m.cfg.OnLifecycle != nil {
		m.cfg.OnLifecycle(event)
	}
}

func (m *Manager) logSubscription(sub *subscription, category log.Category, from, to Status, attempt int, granted *time.Duration, reason string) {
	m.logger.Log(log.Event{
		Timestamp: time.Now(),
		Category:  category,
		DeviceID:  sub.key.Device.String(),
		Service:   sub.key.Service.String(),
		SID:       sub.Lease().SID,
		Subscription: &log.SubscriptionEvent{
			OldStatus: from.String(),
			NewStatus: to.String(),
			Attempt:   attempt,
			Granted:   granted,
			Reason:    reason,
		},
	})
}

// backoffDelay returns the delay before retry number n (0-based),
// doubling from the base.
func backoffDelay(base time.Duration, n int) time.Duration {
	return base << uint(n)
}

// sleepCtx sleeps for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
