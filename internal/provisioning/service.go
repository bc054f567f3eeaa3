// Package provisioning runs the designer-application review workflow: status
// transitions, the approval pipeline that links a brand to its owner, and
// reference-counted deletion.
package provisioning

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/lock"
	"designer-onboarding/internal/common/logger"
	"designer-onboarding/internal/common/metrics"
)

// Config carries the settings the workflow reads.
type Config struct {
	// SiteBaseURL prefixes the reset redirect, e.g. https://www.asomarket.com.
	SiteBaseURL string
	ResetPath   string
}

// ServiceDependencies are the collaborators of Service. Indexer, Locker,
// Recorder, Passwords and Clock are optional.
type ServiceDependencies struct {
	Applications  ApplicationRepository
	Brands        BrandRepository
	Profiles      ProfileRepository
	Identities    IdentityProvider
	RecoveryLinks RecoveryLinkIssuer
	Notifier      Notifier
	Indexer       BrandIndexer
	Locker        ReviewLocker
	Recorder      Recorder
	Passwords     PasswordGenerator
	Logger        logger.Logger
	Clock         func() time.Time
}

type Service struct {
	config        Config
	applications  ApplicationRepository
	brands        BrandRepository
	profiles      ProfileRepository
	identities    IdentityProvider
	recoveryLinks RecoveryLinkIssuer
	notifier      Notifier
	indexer       BrandIndexer
	locker        ReviewLocker
	recorder      Recorder
	passwords     PasswordGenerator
	logger        logger.Logger
	now           func() time.Time
}

func NewService(deps ServiceDependencies, cfg Config) *Service {
	s := &Service{
		config:        cfg,
		applications:  deps.Applications,
		brands:        deps.Brands,
		profiles:      deps.Profiles,
		identities:    deps.Identities,
		recoveryLinks: deps.RecoveryLinks,
		notifier:      deps.Notifier,
		indexer:       deps.Indexer,
		locker:        deps.Locker,
		recorder:      deps.Recorder,
		passwords:     deps.Passwords,
		logger:        deps.Logger,
		now:           deps.Clock,
	}
	if s.passwords == nil {
		s.passwords = NewCredentialGenerator()
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.config.ResetPath == "" {
		s.config.ResetPath = "/auth/reset-password"
	}
	return s
}

// resetRedirect is where a reset link lands the new brand owner.
func (s *Service) resetRedirect() string {
	return strings.TrimRight(s.config.SiteBaseURL, "/") + s.config.ResetPath
}

// acquire takes the review lock for id. It returns a no-op release when no
// locker is configured or the lock backend is down.
func (s *Service) acquire(ctx context.Context, id string, log logger.Logger) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	lease, err := s.locker.Acquire(ctx, id)
	switch {
	case err == nil:
		return func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to release review lock", map[string]interface{}{"error": err.Error()})
			}
		}, nil
	case stderrors.Is(err, lock.ErrNotAcquired):
		return nil, errors.NewConcurrentReviewError(id)
	default:
		log.Warn("Review lock unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
		return noop, nil
	}
}

func (s *Service) record(ctx context.Context, operation string, started time.Time, err error) {
	if s.recorder == nil {
		return
	}
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = string(errors.Normalize(err).Code)
	}
	s.recorder.RecordWorkflow(ctx, operation, outcome, s.now().Sub(started))
}
