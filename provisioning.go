package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// DefaultAdminEmail is the identifier of the seeded administrator
const DefaultAdminEmail = "admin@emp.com"

// RegisterPrincipalMessage describes a principal to create
type RegisterPrincipalMessage struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// MaxNameLength caps first and last names
const MaxNameLength = 50

// Normalized returns a copy with names and email trimmed, the email lower
// cased and the role upper cased.
func (m RegisterPrincipalMessage) Normalized() RegisterPrincipalMessage {
	return RegisterPrincipalMessage{
		FirstName: strings.TrimSpace(m.FirstName),
		LastName:  strings.TrimSpace(m.LastName),
		Email:     strings.ToLower(strings.TrimSpace(m.Email)),
		Role:      NormalizeRole(m.Role).String(),
	}
}

func (m RegisterPrincipalMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.FirstName, validation.Required, validation.Length(1, MaxNameLength)),
		validation.Field(&m.LastName, validation.Required, validation.Length(1, MaxNameLength)),
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Role, validation.Required, validation.By(func(v any) error {
			if _, ok := ParseRole(v.(string)); !ok {
				return errors.New("must be ADMIN, MANAGER or EMPLOYEE")
			}
			return nil
		})),
	)
}

// Provisioner creates principals: the default administrator at startup
// and new accounts on request.
type Provisioner struct {
	store        AdminProvisioner
	hasher       SecretHasher
	cfg          Config
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

func NewProvisioner(store AdminProvisioner, hasher SecretHasher, cfg Config) *Provisioner {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Provisioner{
		store:        store,
		hasher:       hasher,
		cfg:          cfg,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
}

func (p *Provisioner) WithLogger(l Logger) *Provisioner {
	if l != nil {
		p.logger = l
	}
	return p
}

func (p *Provisioner) WithActivitySink(sink ActivitySink) *Provisioner {
	p.activitySink = normalizeActivitySink(sink)
	return p
}

// EnsureDefaultAdmin creates the ACTIVE administrator admin@emp.com with
// the configured default password unless one already exists. It reports
// whether a principal was created.
func (p *Provisioner) EnsureDefaultAdmin(ctx context.Context) (*Principal, bool, error) {
	exists, err := p.store.ExistsByEmailAndRole(ctx, DefaultAdminEmail, RoleAdmin)
	if err != nil {
		return nil, false, internalError(err, "failed to look up default admin")
	}
	if exists {
		p.logger.Debug("default admin already present")
		return nil, false, nil
	}

	hash, err := p.hasher.HashSecret(p.cfg.GetDefaultPassword())
	if err != nil {
		return nil, false, internalError(err, "failed to hash default admin password")
	}

	admin, err := p.store.CreatePrincipal(ctx, &Principal{
		FirstName:    "admin",
		LastName:     "admin",
		Email:        DefaultAdminEmail,
		PasswordHash: hash,
		Status:       StatusActive,
		CreatedAt:    p.now(),
	}, RoleAdmin)
	if err != nil {
		return nil, false, internalError(err, "failed to create default admin")
	}

	p.logger.Info("default admin %s created", DefaultAdminEmail)
	p.emit(ctx, ActorRef{Type: "system"}, admin)
	return admin, true, nil
}

// Register creates an INACTIVE principal whose password is the configured
// default. The account becomes usable after its first password change.
func (p *Provisioner) Register(ctx context.Context, actor ActorRef, msg RegisterPrincipalMessage) (*Principal, error) {
	msg = msg.Normalized()
	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid principal").
			WithCode(goerrors.CodeBadRequest)
	}

	role, _ := ParseRole(msg.Role)

	hash, err := p.hasher.HashSecret(p.cfg.GetDefaultPassword())
	if err != nil {
		return nil, internalError(err, "failed to hash default password")
	}

	created, err := p.store.CreatePrincipal(ctx, &Principal{
		FirstName:    msg.FirstName,
		LastName:     msg.LastName,
		Email:        msg.Email,
		PasswordHash: hash,
		Status:       StatusInactive,
		CreatedAt:    p.now(),
	}, role)
	if err != nil {
		var rich *goerrors.Error
		if errors.As(err, &rich) {
			return nil, rich
		}
		return nil, internalError(err, "failed to create principal")
	}

	p.emit(ctx, actor, created)
	return created, nil
}

func (p *Provisioner) emit(ctx context.Context, actor ActorRef, created *Principal) {
	event := ActivityEvent{
		EventType:  ActivityEventUserCreated,
		Actor:      actor,
		UserID:     created.Identifier(),
		ToStatus:   created.Status,
		Metadata:   map[string]any{"roles": created.Roles.Names()},
		OccurredAt: p.now(),
	}
	if err := p.activitySink.Record(ctx, event); err != nil {
		p.logger.Warn("activity sink record error: %v", err)
	}
}
