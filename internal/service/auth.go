package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mangoapi/internal/config"
	"mangoapi/internal/model"
	"mangoapi/internal/repository"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrNotStaff           = errors.New("staff access required")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ValidationError carries a field-level message suitable for a 400 response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// RegisterInput is the mobile registration payload.
type RegisterInput struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// TokenPair is an access/refresh JWT pair.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthResult bundles the authenticated user with fresh tokens.
type AuthResult struct {
	User   *model.User
	Tokens TokenPair
}

// Claims are the JWT claims issued for both access and refresh tokens.
// TokenType distinguishes the two so a refresh token cannot authorize requests.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	IsStaff   bool   `json:"is_staff"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// AuthService covers registration, login and token lifecycle.
type AuthService interface {
	// Register validates the payload, creates a user with a generated
	// username and returns the user with a token pair.
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)

	// Login authenticates by email and password.
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// AdminLogin authenticates a staff account by username or email.
	AdminLogin(ctx context.Context, identifier, password string) (*AuthResult, error)

	// Refresh exchanges a valid refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (string, error)

	// ParseAccessToken validates an access token and returns its claims.
	ParseAccessToken(token string) (*Claims, error)
}

type authService struct {
	users repository.UserRepository
	cfg   config.AuthConfig
	now   func() time.Time
}

// NewAuthService constructs an AuthService backed by the user repository.
func NewAuthService(users repository.UserRepository, cfg config.AuthConfig) AuthService {
	return &authService{users: users, cfg: cfg, now: time.Now}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Username:     generateUsername(in.FirstName, in.LastName),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Address:      strings.TrimSpace(in.Address),
		Phone:        strings.TrimSpace(in.Phone),
		IsActive:     true,
		DateJoined:   s.now().UTC(),
	}

	stored, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.issueTokens(stored)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: stored, Tokens: tokens}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, &ValidationError{Field: "email", Message: "email and password are required"}
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Tokens: tokens}, nil
}

func (s *authService) AdminLogin(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, &ValidationError{Field: "username", Message: "username and password are required"}
	}

	u, err := s.users.FindByUsername(ctx, identifier)
	if errors.Is(err, sql.ErrNoRows) {
		u, err = s.users.FindByEmail(ctx, strings.ToLower(identifier))
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	if !u.IsStaff {
		return nil, ErrNotStaff
	}

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Tokens: tokens}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.parseToken(refreshToken, "refresh")
	if err != nil {
		return "", err
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("find user: %w", err)
	}
	if !u.IsActive {
		return "", ErrAccountDisabled
	}

	return s.signToken(u, "access", time.Duration(s.cfg.AccessTTLMin)*time.Minute)
}

func (s *authService) ParseAccessToken(token string) (*Claims, error) {
	return s.parseToken(token, "access")
}

func (s *authService) issueTokens(u *model.User) (TokenPair, error) {
	access, err := s.signToken(u, "access", time.Duration(s.cfg.AccessTTLMin)*time.Minute)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.signToken(u, "refresh", time.Duration(s.cfg.RefreshTTLHours)*time.Hour)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *authService) signToken(u *model.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:    u.ID,
		Email:     u.Email,
		IsStaff:   u.IsStaff,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *authService) parseToken(token, wantType string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func validateRegister(in RegisterInput) error {
	if len(strings.TrimSpace(in.FirstName)) < 2 {
		return &ValidationError{Field: "firstName", Message: "first name must be at least 2 characters"}
	}
	if len(strings.TrimSpace(in.LastName)) < 2 {
		return &ValidationError{Field: "lastName", Message: "last name must be at least 2 characters"}
	}
	if n := len(strings.TrimSpace(in.Address)); n < 5 || n > 200 {
		return &ValidationError{Field: "address", Message: "address must be between 5 and 200 characters"}
	}
	if !emailRe.MatchString(strings.TrimSpace(in.Email)) {
		return &ValidationError{Field: "email", Message: "invalid email format"}
	}
	if len(in.Password) < 8 {
		return &ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	if in.Password != in.ConfirmPassword {
		return &ValidationError{Field: "confirmPassword", Message: "passwords do not match"}
	}
	return nil
}

// generateUsername builds "firstlast_<8 hex>" from the normalized name parts.
func generateUsername(first, last string) string {
	clean := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		var b strings.Builder
		for _, r := range s {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		return b.String()
	}

	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// uuid is backed by the same entropy source, keep going with it
		return clean(first) + clean(last) + "_" + uuid.New().String()[:8]
	}
	return clean(first) + clean(last) + "_" + hex.EncodeToString(buf)
}
