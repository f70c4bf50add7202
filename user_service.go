package auth

import (
	"context"
)

// UserService serves principal records to the principal carried by the
// request context, filtered through an AccessPolicy.
type UserService struct {
	finder PrincipalFinder
	policy *AccessPolicy
}

func NewUserService(finder PrincipalFinder, policy *AccessPolicy) *UserService {
	return &UserService{finder: finder, policy: policy}
}

// Get returns the principal id if the current principal may see it.
func (s *UserService) Get(ctx context.Context, id int64) (*Principal, error) {
	actor, ok := CurrentPrincipal(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	if err := s.policy.AuthorizeRecord(ctx, actor, id); err != nil {
		return nil, err
	}

	principal, err := s.finder.FindPrincipalByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, withMetadata(ErrNotFound, map[string]any{"id": id})
		}
		return nil, internalError(err, "failed to load principal")
	}
	return principal, nil
}

// List returns the page of principals visible to the current principal.
func (s *UserService) List(ctx context.Context, page Page) ([]*Principal, error) {
	actor, ok := CurrentPrincipal(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return s.policy.VisibleListing(ctx, actor, page)
}

// Me returns the current principal.
func (s *UserService) Me(ctx context.Context) (*Principal, error) {
	actor, ok := CurrentPrincipal(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return actor, nil
}
