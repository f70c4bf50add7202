package auth

import (
	"context"
)

// AccessPolicy decides what a principal may see. Admins see everything,
// employees see only themselves and managers see principals that share at
// least one department with them.
type AccessPolicy struct {
	membership DepartmentMembership
	lister     PrincipalLister
	logger     Logger
}

// NewAccessPolicy will create a new AccessPolicy
func NewAccessPolicy(membership DepartmentMembership, lister PrincipalLister) *AccessPolicy {
	return &AccessPolicy{
		membership: membership,
		lister:     lister,
		logger:     defLogger{},
	}
}

func (ap *AccessPolicy) WithLogger(l Logger) *AccessPolicy {
	if l != nil {
		ap.logger = l
	}
	return ap
}

// HasRole is true when principal holds role, ignoring case.
func (ap *AccessPolicy) HasRole(principal *Principal, role string) bool {
	return principal.HasRole(role)
}

// HasAnyRole is true when principal holds at least one of roles.
func (ap *AccessPolicy) HasAnyRole(principal *Principal, roles ...string) bool {
	if principal == nil {
		return false
	}
	return principal.Roles.HasAny(roles...)
}

// CanAccessRecord reports whether actor may read the principal targetID.
// When a principal holds several roles the most privileged one decides.
func (ap *AccessPolicy) CanAccessRecord(ctx context.Context, actor *Principal, targetID int64) (bool, error) {
	switch {
	case actor == nil:
		return false, nil
	case actor.HasRole(string(RoleAdmin)):
		return true, nil
	case actor.HasRole(string(RoleManager)):
		shared, err := ap.membership.DepartmentsShared(ctx, actor.ID, targetID)
		if err != nil {
			return false, internalError(err, "failed to check department membership")
		}
		return shared, nil
	case actor.HasRole(string(RoleEmployee)):
		return actor.ID == targetID, nil
	default:
		return false, nil
	}
}

// AuthorizeRecord is CanAccessRecord returning ErrAccessDenied on refusal.
func (ap *AccessPolicy) AuthorizeRecord(ctx context.Context, actor *Principal, targetID int64) error {
	if actor == nil {
		return ErrUnauthenticated
	}

	ok, err := ap.CanAccessRecord(ctx, actor, targetID)
	if err != nil {
		return err
	}
	if !ok {
		ap.logger.Debug("principal %d denied access to record %d", actor.ID, targetID)
		return withMetadata(ErrAccessDenied, map[string]any{"target_id": targetID})
	}
	return nil
}

// VisibleListing returns the page of principals actor is allowed to list.
// Managers get the distinct set of principals sharing a department with
// them, themselves included when they belong to any department.
func (ap *AccessPolicy) VisibleListing(ctx context.Context, actor *Principal, page Page) ([]*Principal, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	page = page.Normalize()

	var (
		list []*Principal
		err  error
	)
	switch {
	case actor.HasRole(string(RoleAdmin)):
		list, err = ap.lister.ListPrincipals(ctx, page)
	case actor.HasRole(string(RoleManager)):
		list, err = ap.lister.ListPrincipalsSharingDepartments(ctx, actor.ID, page)
	case actor.HasRole(string(RoleEmployee)):
		list, err = ap.lister.ListPrincipals(ctx, page)
	default:
		return nil, withMetadata(ErrAccessDenied, map[string]any{"reason": "no recognized role"})
	}
	if err != nil {
		return nil, internalError(err, "failed to list principals")
	}
	return list, nil
}
