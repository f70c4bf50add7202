package auth

import (
	"context"
	"time"
)

// LoginResult is returned by a successful login
type LoginResult struct {
	Token string           `json:"token"`
	User  PrincipalSummary `json:"user"`
}

// Auther runs the login and password change flows on top of the
// credential check, the token codec and the status machine.
type Auther struct {
	store         PrincipalRepository
	credentials   *CredentialAuthenticator
	hasher        SecretHasher
	tokenService  TokenCodec
	statusMachine *StatusMachine
	tokenTTLHours int
	logger        Logger
	activitySink  ActivitySink
	metrics       *Metrics
	now           func() time.Time
}

// NewAuthenticator returns a new Auther. Tokens are signed with the
// configured key and issuer and live for GetTokenExpiration hours.
func NewAuthenticator(store PrincipalRepository, hasher SecretHasher, opts Config) *Auther {
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	return &Auther{
		store:         store,
		credentials:   NewCredentialAuthenticator(store, hasher),
		hasher:        hasher,
		tokenService:  NewTokenService([]byte(opts.GetSigningKey()), opts.GetIssuer()),
		statusMachine: NewStatusMachine(),
		tokenTTLHours: opts.GetTokenExpiration(),
		logger:        defLogger{},
		activitySink:  noopActivitySink{},
		now:           time.Now,
	}
}

// WithLogger sets the logger of the Auther, its credential check and its
// status machine.
func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger == nil {
		return s
	}
	s.logger = logger
	s.credentials.WithLogger(logger)
	s.statusMachine.logger = logger
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
// The default status machine publishes to the same sink.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	s.statusMachine.activitySink = s.activitySink
	return s
}

// WithTokenService replaces the token codec, e.g. to share one built with
// a test clock.
func (s *Auther) WithTokenService(codec TokenCodec) *Auther {
	if codec != nil {
		s.tokenService = codec
	}
	return s
}

func (s *Auther) WithStatusMachine(sm *StatusMachine) *Auther {
	if sm != nil {
		s.statusMachine = sm
	}
	return s
}

func (s *Auther) WithMetrics(m *Metrics) *Auther {
	s.metrics = m
	return s
}

// TokenService returns the codec used by this Auther
func (s *Auther) TokenService() TokenCodec {
	return s.tokenService
}

// Login verifies the credentials, refuses inactive accounts and issues a
// token together with the public user summary.
func (s *Auther) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	principal, err := s.credentials.Authenticate(ctx, identifier, secret)
	if err != nil {
		s.logger.Info("Login rejected: %v", err)
		s.metrics.LoginAttempt("invalid_credentials")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	if principal.Status == StatusInactive {
		s.logger.Warn("Login blocked for inactive principal %d", principal.ID)
		s.metrics.LoginAttempt("inactive")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, actorFromPrincipal(principal), principal.Identifier(), map[string]any{
			"identifier": identifier,
			"error":      ErrAccountInactive.Error(),
			"status":     principal.Status,
		})
		return nil, ErrAccountInactive
	}

	token, err := s.tokenService.Issue(principal.ID, s.tokenTTLHours)
	if err != nil {
		s.logger.Error("Login failed to issue token: %v", err)
		s.metrics.LoginAttempt("error")
		return nil, err
	}

	s.metrics.LoginAttempt("success")
	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, actorFromPrincipal(principal), principal.Identifier(), map[string]any{
		"identifier": identifier,
	})

	return &LoginResult{
		Token: token,
		User:  principal.Summary(),
	}, nil
}

// ChangePassword replaces the secret of identifier after checking the old
// one. The new secret is validated before anything else happens. An
// INACTIVE principal becomes ACTIVE and the principal is saved once.
func (s *Auther) ChangePassword(ctx context.Context, identifier, oldSecret, newSecret string) error {
	if err := ValidatePasswordStrength(newSecret); err != nil {
		s.metrics.PasswordChange("weak_password")
		return err
	}

	principal, err := s.credentials.Authenticate(ctx, identifier, oldSecret)
	if err != nil {
		s.metrics.PasswordChange("invalid_credentials")
		return err
	}

	hash, err := s.hasher.HashSecret(newSecret)
	if err != nil {
		s.metrics.PasswordChange("error")
		return internalError(err, "failed to hash new password")
	}

	// Work on a copy so a failed save leaves the loaded principal intact.
	updated := *principal
	updated.PasswordHash = hash

	from, activated, err := s.statusMachine.Apply(&updated, StatusActive)
	if err != nil {
		s.metrics.PasswordChange("error")
		return err
	}

	if err := s.store.SavePrincipal(ctx, &updated); err != nil {
		s.metrics.PasswordChange("error")
		return internalError(err, "failed to save principal")
	}

	*principal = updated

	actor := actorFromPrincipal(principal)
	if activated {
		s.statusMachine.Announce(ctx, actor, principal, from, WithTransitionReason("password changed"))
	}

	s.metrics.PasswordChange("success")
	s.emitAuthEvent(ctx, ActivityEventPasswordChanged, actor, principal.Identifier(), map[string]any{
		"activated": activated,
	})
	return nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func actorFromPrincipal(p *Principal) ActorRef {
	if p == nil {
		return ActorRef{Type: "unknown"}
	}
	return ActorRef{ID: p.Identifier(), Type: "user"}
}
