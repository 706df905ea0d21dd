// Package keepalive owns the long-lived AI-service session and refreshes it
// before it expires. Other components only read the current handle.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"knowledge-governance/internal/model"
)

type Health string

const (
	HealthHealthy    Health = "HEALTHY"
	HealthRefreshing Health = "REFRESHING"
	HealthExpired    Health = "EXPIRED"
)

var (
	ErrSessionExpired    = errors.New("ai session expired, manual re-authentication required")
	ErrRefreshInProgress = errors.New("ai session refresh in progress, retry shortly")
	ErrSchedulerClosed   = errors.New("keepalive scheduler closed")
)

// Credentials are what a refresh or a manual re-authentication produces.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type Refresher interface {
	Refresh(ctx context.Context, current Credentials) (Credentials, error)
}

type Store interface {
	Load(ctx context.Context) (*model.AISession, error)
	Save(ctx context.Context, session *model.AISession) error
}

type Config struct {
	Interval            time.Duration
	RefreshBeforeExpiry time.Duration
	RefreshTimeout      time.Duration
	MaxRetries          int
	BackoffBase         time.Duration
	BackoffMax          time.Duration
	WaitTimeout         time.Duration
}

type Session struct {
	AccessToken         string
	RefreshToken        string
	IssuedAt            time.Time
	ExpiresAt           time.Time
	Health              Health
	ConsecutiveFailures int
	LastRefreshAt       time.Time
	LastError           string
}

// Handle is a read-only view of the session handed to consumers.
type Handle struct {
	accessToken string
	expiresAt   time.Time
}

func (h Handle) AccessToken() string  { return h.accessToken }
func (h Handle) ExpiresAt() time.Time { return h.expiresAt }

// Status is the token-free snapshot shown to operators.
type Status struct {
	Health              Health     `json:"health"`
	IssuedAt            *time.Time `json:"issued_at,omitempty"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastRefreshAt       *time.Time `json:"last_refresh_at,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	NextRefreshAt       *time.Time `json:"next_refresh_at,omitempty"`
}

type Scheduler struct {
	cfg       Config
	refresher Refresher
	store     Store
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.Mutex
	session     Session
	generation  uint64
	refreshDone chan struct{}
	nextRefresh time.Time

	wake   chan struct{}
	closed bool
	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(cfg Config, refresher Refresher, store Store, logger *zap.Logger) *Scheduler {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 20 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = cfg.BackoffBase
	}
	return &Scheduler{
		cfg:       cfg,
		refresher: refresher,
		store:     store,
		logger:    logger.With(zap.String("service", "keepalive")),
		now:       func() time.Time { return time.Now().UTC() },
		session:   Session{Health: HealthExpired, LastError: "no credentials installed"},
		wake:      make(chan struct{}, 1),
		runCtx:    context.Background(),
	}
}

// Start loads the persisted session and runs the refresh timer until ctx ends or Close is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.runCtx = runCtx
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		cancel()
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(runCtx)
	}()
	return nil
}

// Close stops the timer loop and waits for every refresh it or Current started.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) load(ctx context.Context) error {
	stored, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ai session failed: %w", err)
	}
	if stored == nil {
		s.logger.Warn("no ai session stored, waiting for re-authentication")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = fromModel(stored)
	if s.session.Health == HealthRefreshing {
		// the previous process stopped mid-refresh
		s.session.Health = HealthHealthy
	}
	if s.session.AccessToken == "" {
		s.session.Health = HealthExpired
	}
	s.logger.Info("ai session loaded",
		zap.String("health", string(s.session.Health)),
		zap.Time("expires_at", s.session.ExpiresAt))
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		delay, scheduled := s.nextDelay()
		var timer *time.Timer
		var fire <-chan time.Time
		if scheduled {
			timer = time.NewTimer(delay)
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-s.wake:
			if timer != nil {
				timer.Stop()
			}
			continue
		case <-fire:
		}

		if err := s.RefreshNow(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("scheduled ai session refresh failed", zap.Error(err))
		}
	}
}

// nextDelay fires at the interval, or earlier so the refresh lands before the estimated expiry.
func (s *Scheduler) nextDelay() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Health == HealthExpired {
		s.nextRefresh = time.Time{}
		return 0, false
	}
	now := s.now()
	delay := s.cfg.Interval
	if !s.session.ExpiresAt.IsZero() {
		untilExpiry := s.session.ExpiresAt.Sub(now) - s.cfg.RefreshBeforeExpiry
		if untilExpiry < delay {
			delay = untilExpiry
		}
	}
	if delay < 0 {
		delay = 0
	}
	s.nextRefresh = now.Add(delay)
	return delay, true
}

func (s *Scheduler) signalWake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// RefreshNow runs one refresh cycle, or joins the one already in flight.
func (s *Scheduler) RefreshNow(ctx context.Context) error {
	s.mu.Lock()
	switch s.session.Health {
	case HealthExpired:
		s.mu.Unlock()
		return ErrSessionExpired
	case HealthRefreshing:
		done := s.refreshDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if s.Status().Health == HealthExpired {
			return ErrSessionExpired
		}
		return nil
	}
	creds, gen, done := s.beginRefreshLocked()
	s.mu.Unlock()

	s.persist(ctx)
	return s.runRefresh(ctx, creds, gen, done)
}

func (s *Scheduler) beginRefreshLocked() (Credentials, uint64, chan struct{}) {
	s.session.Health = HealthRefreshing
	s.refreshDone = make(chan struct{})
	return s.session.credentials(), s.generation, s.refreshDone
}

func (s *Scheduler) runRefresh(ctx context.Context, creds Credentials, gen uint64, done chan struct{}) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.RefreshTimeout)
		next, err := s.refresher.Refresh(attemptCtx, creds)
		cancel()

		if err == nil && next.AccessToken == "" {
			err = errors.New("refresh returned an empty access token")
		}
		if err == nil {
			s.finish(ctx, gen, done, func(sess *Session) {
				now := s.now()
				sess.AccessToken = next.AccessToken
				if next.RefreshToken != "" {
					sess.RefreshToken = next.RefreshToken
				}
				sess.IssuedAt = now
				sess.ExpiresAt = next.ExpiresAt
				sess.Health = HealthHealthy
				sess.ConsecutiveFailures = 0
				sess.LastRefreshAt = now
				sess.LastError = ""
			})
			s.logger.Info("ai session refreshed", zap.Int("attempt", attempt), zap.Time("expires_at", next.ExpiresAt))
			return nil
		}

		if ctx.Err() != nil {
			// shutdown, not a refresh failure
			s.finish(context.Background(), gen, done, func(sess *Session) { sess.Health = HealthHealthy })
			return ctx.Err()
		}

		lastErr = err
		failures := s.recordFailure(gen, err)
		s.logger.Warn("ai session refresh attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("consecutive_failures", failures),
			zap.Error(err))

		if attempt < s.cfg.MaxRetries {
			select {
			case <-time.After(s.backoff(attempt)):
			case <-ctx.Done():
				s.finish(context.Background(), gen, done, func(sess *Session) { sess.Health = HealthHealthy })
				return ctx.Err()
			}
		}
	}

	s.finish(ctx, gen, done, func(sess *Session) {
		sess.Health = HealthExpired
		sess.LastError = lastErr.Error()
	})
	s.logger.Error("ai session expired after repeated refresh failures, manual re-authentication required",
		zap.Int("max_retries", s.cfg.MaxRetries),
		zap.Error(lastErr))
	return fmt.Errorf("%w: %v", ErrSessionExpired, lastErr)
}

func (s *Scheduler) backoff(attempt int) time.Duration {
	d := s.cfg.BackoffBase << (attempt - 1)
	if d <= 0 || d > s.cfg.BackoffMax {
		d = s.cfg.BackoffMax
	}
	return d
}

func (s *Scheduler) recordFailure(gen uint64, err error) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return 0
	}
	s.session.ConsecutiveFailures++
	s.session.LastError = err.Error()
	return s.session.ConsecutiveFailures
}

// finish ends a cycle. Results of a cycle overtaken by Reauthenticate are dropped.
func (s *Scheduler) finish(ctx context.Context, gen uint64, done chan struct{}, apply func(*Session)) {
	s.mu.Lock()
	if s.generation == gen {
		apply(&s.session)
	}
	if s.refreshDone == done {
		s.refreshDone = nil
	}
	closeDoneLocked(done)
	s.mu.Unlock()

	s.persist(ctx)
	s.signalWake()
}

// Current returns the session handle. While a refresh is running it waits up to
// WaitTimeout, then reports ErrRefreshInProgress. An expired estimate triggers a refresh
// instead of returning the stale token.
func (s *Scheduler) Current(ctx context.Context) (Handle, error) {
	deadline := time.NewTimer(s.cfg.WaitTimeout)
	defer deadline.Stop()

	for {
		s.mu.Lock()
		switch s.session.Health {
		case HealthExpired:
			s.mu.Unlock()
			return Handle{}, ErrSessionExpired
		case HealthHealthy:
			if s.session.ExpiresAt.IsZero() || s.now().Before(s.session.ExpiresAt) {
				h := Handle{accessToken: s.session.AccessToken, expiresAt: s.session.ExpiresAt}
				s.mu.Unlock()
				return h, nil
			}
			if s.closed {
				s.mu.Unlock()
				return Handle{}, ErrSchedulerClosed
			}
			creds, gen, done := s.beginRefreshLocked()
			runCtx := s.runCtx
			s.wg.Add(1)
			s.mu.Unlock()
			s.logger.Info("ai session past its estimated expiry, refreshing now")
			go func() {
				defer s.wg.Done()
				_ = s.runRefresh(runCtx, creds, gen, done)
			}()
			continue
		}
		done := s.refreshDone
		s.mu.Unlock()

		select {
		case <-done:
		case <-deadline.C:
			return Handle{}, ErrRefreshInProgress
		case <-ctx.Done():
			return Handle{}, ctx.Err()
		}
	}
}

// AccessToken lets the notebook client read the session without seeing the Handle type.
func (s *Scheduler) AccessToken(ctx context.Context) (string, error) {
	h, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	return h.AccessToken(), nil
}

// Reauthenticate installs credentials obtained through the interactive flow and clears EXPIRED.
func (s *Scheduler) Reauthenticate(ctx context.Context, creds Credentials) error {
	if strings.TrimSpace(creds.AccessToken) == "" {
		return errors.New("access token is required")
	}
	now := s.now()
	if !creds.ExpiresAt.IsZero() && !creds.ExpiresAt.After(now) {
		return errors.New("credentials are already expired")
	}

	s.mu.Lock()
	s.generation++
	s.session = Session{
		AccessToken:   creds.AccessToken,
		RefreshToken:  creds.RefreshToken,
		IssuedAt:      now,
		ExpiresAt:     creds.ExpiresAt,
		Health:        HealthHealthy,
		LastRefreshAt: now,
	}
	if s.refreshDone != nil {
		closeDoneLocked(s.refreshDone)
		s.refreshDone = nil
	}
	s.mu.Unlock()

	s.persist(ctx)
	s.signalWake()
	s.logger.Info("ai session re-authenticated", zap.Time("expires_at", creds.ExpiresAt))
	return nil
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Health:              s.session.Health,
		ConsecutiveFailures: s.session.ConsecutiveFailures,
		LastError:           s.session.LastError,
		IssuedAt:            timePtr(s.session.IssuedAt),
		ExpiresAt:           timePtr(s.session.ExpiresAt),
		LastRefreshAt:       timePtr(s.session.LastRefreshAt),
	}
	if s.session.Health == HealthHealthy {
		st.NextRefreshAt = timePtr(s.nextRefresh)
	}
	return st
}

func (s *Scheduler) persist(ctx context.Context) {
	s.mu.Lock()
	row := toModel(s.session)
	s.mu.Unlock()
	if err := s.store.Save(ctx, row); err != nil {
		s.logger.Warn("persist ai session failed", zap.Error(err))
	}
}

func (sess Session) credentials() Credentials {
	return Credentials{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken, ExpiresAt: sess.ExpiresAt}
}

// closeDoneLocked closes ch unless Reauthenticate or finish already did. Callers hold s.mu.
func closeDoneLocked(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toModel(sess Session) *model.AISession {
	row := &model.AISession{
		AccessToken:         sess.AccessToken,
		RefreshToken:        sess.RefreshToken,
		IssuedAt:            sess.IssuedAt,
		ExpiresAt:           sess.ExpiresAt,
		Health:              string(sess.Health),
		ConsecutiveFailures: sess.ConsecutiveFailures,
		LastError:           sess.LastError,
	}
	row.LastRefreshAt = timePtr(sess.LastRefreshAt)
	return row
}

func fromModel(row *model.AISession) Session {
	sess := Session{
		AccessToken:         row.AccessToken,
		RefreshToken:        row.RefreshToken,
		IssuedAt:            row.IssuedAt,
		ExpiresAt:           row.ExpiresAt,
		Health:              Health(row.Health),
		ConsecutiveFailures: row.ConsecutiveFailures,
		LastError:           row.LastError,
	}
	if row.LastRefreshAt != nil {
		sess.LastRefreshAt = *row.LastRefreshAt
	}
	switch sess.Health {
	case HealthHealthy, HealthRefreshing, HealthExpired:
	default:
		sess.Health = HealthExpired
	}
	return sess
}
