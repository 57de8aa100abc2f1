package service

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

type CustomerStore interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	CustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
}

// Claims carried by both access and refresh tokens. Subject is the user id.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthService struct {
	users      UserStore
	customers  CustomerStore
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

func NewAuthService(users UserStore, customers CustomerStore, secret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *AuthService {
	if accessTTL == 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL == 0 {
		refreshTTL = 72 * time.Hour
	}
	return &AuthService{
		users:      users,
		customers:  customers,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

// Register creates the account and, if no customer row exists for the email,
// a customer alongside it. The two identities share nothing but the email.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if _, err := s.users.UserByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.BadRequest("user already exists")
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if _, err := s.customers.CustomerByEmail(ctx, in.Email); apperrors.IsNotFound(err) {
		customer := &models.Customer{
			ID:      uuid.New().String(),
			Email:   in.Email,
			Name:    in.Name,
			Address: in.Address,
			Phone:   in.Phone,
		}
		if err := s.customers.CreateCustomer(ctx, customer); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies the password and issues a token pair. Unknown email and
// wrong password return the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	return s.issuePair(user)
}

// Validate parses and verifies a token, returning its claims.
func (s *AuthService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.Unauthorized("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

// Refresh re-issues a token pair from a valid refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.Validate(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.UserByEmail(ctx, claims.Email)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}
	if err != nil {
		return nil, err
	}
	return s.issuePair(user)
}

func (s *AuthService) issuePair(user *models.User) (*TokenPair, error) {
	access, err := s.sign(user, s.accessTTL)
	if err != nil {
		return nil, apperrors.Internal("failed to sign token", err)
	}
	refresh, err := s.sign(user, s.refreshTTL)
	if err != nil {
		return nil, apperrors.Internal("failed to sign token", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) sign(user *models.User, ttl time.Duration) (string, error) {
	claims := &Claims{
		Email: user.Email,
		Role:  user.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			ExpiresAt: time.Now().Add(ttl).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
