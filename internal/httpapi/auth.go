package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
	"github.com/it25102753/Oil-Shope-POS-system/internal/session"
	"github.com/it25102753/Oil-Shope-POS-system/internal/store"
	"github.com/it25102753/Oil-Shope-POS-system/internal/xid"
)

const tokenIssuer = "oil-shop-pos"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
)

// EmployeeStore is the subset of the repository the auth layer reads.
type EmployeeStore interface {
	GetEmployeeByID(ctx context.Context, id int64) (*domain.Employee, error)
	GetEmployeeByUsername(ctx context.Context, username string) (*domain.Employee, error)
}

type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	users    EmployeeStore
	sessions session.Store
	now      func() time.Time
}

type posCustomClaims struct {
	jwtlib.RegisteredClaims
	Role domain.Role `json:"role"`
}

// LoginResult carries the signed token alongside the public response body.
type LoginResult struct {
	Response  domain.LoginResponse
	Token     string
	ExpiresAt time.Time
}

func NewAuthManager(secret string, tokenTTL time.Duration, users EmployeeStore, sessions session.Store) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		users:    users,
		sessions: sessions,
		now:      time.Now,
	}
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	employee, err := a.users.GetEmployeeByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		// Unknown usernames pay the same bcrypt cost as a wrong password.
		_ = bcrypt.CompareHashAndPassword([]byte(missingUserHash()), []byte(req.Password))
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !verifyPassword(employee.PasswordHash, req.Password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	sessionID := xid.New("sess")
	expiresAt := a.now().UTC().Add(a.tokenTTL)
	if err := a.sessions.Create(ctx, sessionID, employee.ID, a.tokenTTL); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}
	token, err := a.sign(employee.ID, employee.Role, sessionID, expiresAt)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		Response: domain.LoginResponse{
			Success:   true,
			Role:      employee.Role,
			Token:     token,
			ExpiresAt: expiresAt.Format(time.RFC3339),
		},
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Authenticate resolves a token to the current state of its employee. A revoked
// session or a deleted employee is reported as ErrUnauthenticated.
func (a *AuthManager) Authenticate(ctx context.Context, token string) (domain.Actor, error) {
	claims, err := a.parseToken(token)
	if err != nil {
		return domain.Actor{}, err
	}

	live, err := a.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("check session: %w", err)
	}
	if !live {
		return domain.Actor{}, fmt.Errorf("%w: session expired", ErrUnauthenticated)
	}

	employeeID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: invalid token subject", ErrUnauthenticated)
	}
	employee, err := a.users.GetEmployeeByID(ctx, employeeID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Actor{}, fmt.Errorf("%w: account no longer exists", ErrUnauthenticated)
	}
	if err != nil {
		return domain.Actor{}, err
	}

	return domain.Actor{
		EmployeeID: employee.ID,
		Username:   employee.Username,
		Role:       employee.Role,
	}, nil
}

// Logout revokes the session behind token. Tokens that no longer parse are
// treated as already logged out.
func (a *AuthManager) Logout(ctx context.Context, token string) error {
	claims, err := a.parseToken(token)
	if err != nil {
		return nil
	}
	return a.sessions.Revoke(ctx, claims.ID)
}

func (a *AuthManager) parseToken(tokenStr string) (*posCustomClaims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, ErrUnauthenticated
	}
	claims := &posCustomClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: invalid token claims", ErrUnauthenticated)
	}
	return claims, nil
}

func (a *AuthManager) sign(employeeID int64, role domain.Role, sessionID string, expiresAt time.Time) (string, error) {
	claims := posCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   strconv.FormatInt(employeeID, 10),
			ID:        sessionID,
			IssuedAt:  jwtlib.NewNumericDate(a.now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    tokenIssuer,
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

var missingUserHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("unknown-employee"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt placeholder hash: %v", err))
	}
	return string(hash)
})

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
