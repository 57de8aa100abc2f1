package service

import (
	"context"
	"testing"
	"time"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture() (*AuthService, *fakeUserStore, *fakeCustomerStore) {
	users := newFakeUserStore()
	customers := newFakeCustomerStore()
	svc := NewAuthService(users, customers, "test-secret", 15*time.Minute, 72*time.Hour, zap.NewNop())
	return svc, users, customers
}

func TestRegisterCreatesUserAndCustomer(t *testing.T) {
	svc, users, customers := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:    "alice@example.com",
		Password: "correcthorse",
		Name:     "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "correcthorse", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correcthorse")))

	require.Len(t, users.users, 1)
	customer, err := customers.CustomerByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", customer.Name)
}

func TestRegisterKeepsExistingCustomer(t *testing.T) {
	svc, _, customers := newAuthFixture()
	ctx := context.Background()

	existing := &models.Customer{ID: "c1", Email: "alice@example.com", Name: "Pre-existing"}
	require.NoError(t, customers.CreateCustomer(ctx, existing))

	_, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "correcthorse"})
	require.NoError(t, err)

	customer, err := customers.CustomerByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "c1", customer.ID, "registration must not replace an existing customer")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "correcthorse"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "other"})
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestLoginIssuesValidTokens(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "correcthorse"})
	require.NoError(t, err)

	pair, err := svc.Login(ctx, "alice@example.com", "correcthorse")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestLoginFailureIsIndistinct(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "correcthorse"})
	require.NoError(t, err)

	_, errWrongPassword := svc.Login(ctx, "alice@example.com", "wrong")
	_, errNoSuchUser := svc.Login(ctx, "nobody@example.com", "whatever")

	assert.True(t, apperrors.IsUnauthorized(errWrongPassword))
	assert.True(t, apperrors.IsUnauthorized(errNoSuchUser))
	assert.Equal(t, errWrongPassword.Error(), errNoSuchUser.Error(),
		"wrong password and unknown user must be indistinguishable")
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	users := newFakeUserStore()
	customers := newFakeCustomerStore()
	svc := NewAuthService(users, customers, "test-secret", -time.Minute, 72*time.Hour, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "correcthorse"})
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "alice@example.com", "correcthorse")
	require.NoError(t, err)

	_, err = svc.Validate(pair.AccessToken)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Validate("not-a-token")
	assert.True(t, apperrors.IsUnauthorized(err))

	// Token signed with a different secret
	other := NewAuthService(newFakeUserStore(), newFakeCustomerStore(), "other-secret", time.Minute, time.Hour, zap.NewNop())
	pair, err := other.issuePair(&models.User{ID: "u1", Email: "x@example.com", Role: models.RoleUser})
	require.NoError(t, err)
	_, err = svc.Validate(pair.AccessToken)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestRefresh(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "correcthorse"})
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "alice@example.com", "correcthorse")
	require.NoError(t, err)

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, err = svc.Validate(fresh.AccessToken)
	assert.NoError(t, err)

	_, err = svc.Refresh(ctx, "garbage")
	assert.True(t, apperrors.IsUnauthorized(err))
}
