// Package auth hashes staff passwords and issues the bearer tokens that
// attribute sales to a staff account.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmapos/m/domain"
	"pharmapos/m/internal/store"
)

// ErrInvalidCredentials is returned for an unknown username or wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Claims identify the staff member behind a request.
type Claims struct {
	StaffID int64  `json:"staff_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(staff domain.Staff) (string, error) {
	now := t.now()
	claims := Claims{
		StaffID: staff.ID,
		Role:    staff.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Parse(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// Service manages staff accounts.
type Service struct {
	store  *store.Store
	tokens *Tokens
	log    *zap.Logger
}

func NewService(st *store.Store, tokens *Tokens, log *zap.Logger) *Service {
	return &Service{store: st, tokens: tokens, log: log.Named("auth")}
}

// Login checks the credentials and returns a signed token for the account.
func (s *Service) Login(ctx context.Context, username, password string) (string, domain.Staff, error) {
	staff, err := s.store.StaffByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.Staff{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", domain.Staff{}, err
	}
	if !CheckPassword(staff.PasswordHash, password) {
		s.log.Warn("failed login", zap.String("username", staff.Username))
		return "", domain.Staff{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(staff)
	if err != nil {
		return "", domain.Staff{}, fmt.Errorf("issue token: %w", err)
	}
	return token, staff, nil
}

// CreateStaff stores a new account with a hashed password.
func (s *Service) CreateStaff(ctx context.Context, staff domain.Staff, password string) (domain.Staff, error) {
	staff.Username = strings.TrimSpace(staff.Username)
	staff.FullName = strings.TrimSpace(staff.FullName)
	switch {
	case staff.Username == "":
		return domain.Staff{}, domain.Invalid("username", "is required")
	case len(password) < 8:
		return domain.Staff{}, domain.Invalid("password", "must be at least 8 characters")
	case staff.Role != domain.RoleAdmin && staff.Role != domain.RolePharmacist:
		return domain.Staff{}, domain.Invalid("role", "must be admin or pharmacist")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return domain.Staff{}, err
	}
	staff.PasswordHash = hash
	if err := s.store.InsertStaff(ctx, &staff); err != nil {
		return domain.Staff{}, fmt.Errorf("create staff %q: %w", staff.Username, err)
	}
	s.log.Info("staff created", zap.Int64("staff_id", staff.ID), zap.String("role", staff.Role))
	return staff, nil
}

// Bootstrap creates the first admin account when no staff exists. It is a
// no-op afterwards.
func (s *Service) Bootstrap(ctx context.Context, username, password string) error {
	n, err := s.store.CountStaff(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if password == "" {
		return errors.New("auth.admin_password is required to create the first admin account")
	}
	_, err = s.CreateStaff(ctx, domain.Staff{Username: username, FullName: "Administrator", Role: domain.RoleAdmin}, password)
	return err
}
