package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Department name bounds, counted in characters after trimming
const (
	MinDepartmentNameLength = 3
	MaxDepartmentNameLength = 100
)

// Department groups principals. Managers see the principals that share at
// least one department with them.
type Department struct {
	bun.BaseModel `bun:"table:departments,alias:d"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id"`
	Name          string `bun:"name,notnull,unique" json:"name"`
}

// DepartmentStore manages department records. Deleting a department
// drops its memberships.
type DepartmentStore interface {
	Create(ctx context.Context, name string) (*Department, error)
	Get(ctx context.Context, id int64) (*Department, error)
	List(ctx context.Context, page Page) ([]*Department, error)
	Update(ctx context.Context, id int64, name string) (*Department, error)
	Delete(ctx context.Context, id int64) error
}

var ErrDepartmentNotFound = goerrors.New("Department not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(goerrors.CodeNotFound)

// NormalizeDepartmentName trims name and checks its length. The returned
// error is a validation error that renders as 400.
func NormalizeDepartmentName(name string) (string, error) {
	name = strings.TrimSpace(name)
	err := validation.Validate(name,
		validation.Required,
		validation.Length(MinDepartmentNameLength, MaxDepartmentNameLength),
	)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid department name").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"name": name})
	}
	return name, nil
}
