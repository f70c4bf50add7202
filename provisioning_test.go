package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/bytebard/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisioner_EnsureDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	dir := newMemoryDirectory()
	sink := &MockActivitySink{}

	opts := testOptions()
	opts.DefaultPassword = "S3cret!admin"
	provisioner := auth.NewProvisioner(dir, fastHasher, opts).
		WithLogger(MockLogger{}).
		WithActivitySink(sink)

	admin, created, err := provisioner.EnsureDefaultAdmin(ctx)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, auth.DefaultAdminEmail, admin.Email)
	assert.Equal(t, "admin", admin.FirstName)
	assert.Equal(t, "admin", admin.LastName)
	assert.Equal(t, auth.StatusActive, admin.Status)
	assert.True(t, admin.HasRole("ADMIN"))
	assert.True(t, fastHasher.VerifySecret("S3cret!admin", admin.PasswordHash))

	_, created, err = provisioner.EnsureDefaultAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, []auth.ActivityEventType{auth.ActivityEventUserCreated}, sink.Types())

	auther := auth.NewAuthenticator(dir, fastHasher, opts).WithLogger(MockLogger{})
	_, err = auther.Login(ctx, auth.DefaultAdminEmail, "S3cret!admin")
	assert.NoError(t, err)
}

func TestProvisioner_Register(t *testing.T) {
	ctx := context.Background()
	dir := newMemoryDirectory()
	opts := testOptions()
	provisioner := auth.NewProvisioner(dir, fastHasher, opts).WithLogger(MockLogger{})
	auther := auth.NewAuthenticator(dir, fastHasher, opts).WithLogger(MockLogger{})

	created, err := provisioner.Register(ctx, auth.ActorRef{ID: "1", Type: "user"}, auth.RegisterPrincipalMessage{
		FirstName: " Sam ",
		LastName:  "Lee",
		Email:     " Sam@Emp.com ",
		Role:      "employee",
	})
	require.NoError(t, err)
	assert.Equal(t, "sam@emp.com", created.Email)
	assert.Equal(t, "Sam", created.FirstName)
	assert.Equal(t, auth.StatusInactive, created.Status)
	assert.True(t, created.HasRole("EMPLOYEE"))

	_, err = auther.Login(ctx, "sam@emp.com", opts.GetDefaultPassword())
	assert.True(t, auth.IsAccountInactive(err))

	require.NoError(t, auther.ChangePassword(ctx, "sam@emp.com", opts.GetDefaultPassword(), "Fresh!pass9"))

	result, err := auther.Login(ctx, "sam@emp.com", "Fresh!pass9")
	require.NoError(t, err)
	assert.Equal(t, auth.StatusActive, result.User.Status)

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := provisioner.Register(ctx, auth.ActorRef{}, auth.RegisterPrincipalMessage{
			FirstName: "X",
			LastName:  "Y",
			Email:     "not-an-email",
			Role:      "EMPLOYEE",
		})
		assert.Error(t, err)

		_, err = provisioner.Register(ctx, auth.ActorRef{}, auth.RegisterPrincipalMessage{
			FirstName: "X",
			LastName:  "Y",
			Email:     "x@emp.com",
			Role:      "OWNER",
		})
		assert.Error(t, err)

		_, err = provisioner.Register(ctx, auth.ActorRef{}, auth.RegisterPrincipalMessage{
			FirstName: strings.Repeat("a", auth.MaxNameLength+1),
			LastName:  "Y",
			Email:     "long@emp.com",
			Role:      "EMPLOYEE",
		})
		assert.Error(t, err)
	})
}

func TestRegisterPrincipalMessage_Normalized(t *testing.T) {
	msg := auth.RegisterPrincipalMessage{
		FirstName: "  Ana ",
		LastName:  " Ruiz",
		Email:     "  Ana.Ruiz@Emp.COM ",
		Role:      " manager ",
	}.Normalized()

	assert.Equal(t, auth.RegisterPrincipalMessage{
		FirstName: "Ana",
		LastName:  "Ruiz",
		Email:     "ana.ruiz@emp.com",
		Role:      "MANAGER",
	}, msg)
	assert.NoError(t, msg.Validate())

	msg.FirstName = strings.Repeat("b", auth.MaxNameLength)
	assert.NoError(t, msg.Validate())
}
