package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleModerator Role = "moderator"
)

var (
	ErrInvalidToken       = errors.New("invalid or expired session token")
	ErrInvalidCredentials = errors.New("invalid moderator password")
	ErrModeratorDisabled  = errors.New("moderator sign-in is not configured")
)

// Identity is the session principal that tags submissions.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (i Identity) IsModerator() bool {
	return i.Role == RoleModerator
}

type sessionClaims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// IdentityService issues and resumes signed session tokens.
type IdentityService struct {
	secret        []byte
	ttl           time.Duration
	moderatorHash []byte
	now           func() time.Time
}

// NewIdentityService signs tokens with secret. An empty moderatorHash
// disables moderator sign-in.
func NewIdentityService(secret string, ttl time.Duration, moderatorHash string) *IdentityService {
	return &IdentityService{
		secret:        []byte(secret),
		ttl:           ttl,
		moderatorHash: []byte(moderatorHash),
		now:           time.Now,
	}
}

// MintAnonymous creates a fresh anonymous identity and its token.
func (s *IdentityService) MintAnonymous() (Identity, string, error) {
	id := Identity{ID: uuid.NewString(), Role: RoleAnonymous}
	token, err := s.sign(id)
	if err != nil {
		return Identity{}, "", err
	}
	return id, token, nil
}

// MintModerator checks password against the configured bcrypt hash.
func (s *IdentityService) MintModerator(password string) (Identity, string, error) {
	if len(s.moderatorHash) == 0 {
		return Identity{}, "", ErrModeratorDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.moderatorHash, []byte(password)); err != nil {
		return Identity{}, "", ErrInvalidCredentials
	}

	id := Identity{ID: "moderator-" + uuid.NewString(), Role: RoleModerator}
	token, err := s.sign(id)
	if err != nil {
		return Identity{}, "", err
	}
	return id, token, nil
}

// Resolve returns the identity carried by a valid token.
func (s *IdentityService) Resolve(token string) (Identity, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return Identity{}, fmt.Errorf("%w: missing subject or expiry", ErrInvalidToken)
	}

	role := claims.Role
	if role != RoleModerator {
		role = RoleAnonymous
	}
	return Identity{ID: claims.Subject, Role: role}, nil
}

func (s *IdentityService) sign(id Identity) (string, error) {
	now := s.now()
	claims := sessionClaims{
		Role: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
