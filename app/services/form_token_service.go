package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ymgch/mitsumori/config"
	"github.com/ymgch/mitsumori/utils"
)

// Form token error constants
var (
	ErrFormTokenInvalid = errors.New("invalid form token")
	ErrFormTokenExpired = errors.New("form token has expired")
	ErrFormTokenUsed    = errors.New("form token already used")
)

// Token purposes bind a token to the form that embedded it.
const (
	TokenPurposeCatalog = "catalog_form"
)

// FormTokenService issues and redeems the one-time tokens hidden in
// public forms. A token allows exactly one submission within its TTL;
// replaying one is the double-submit signal.
type FormTokenService interface {
	Issue(purpose string) (string, error)
	Consume(token, purpose string) error
}

// FormTokenServiceImpl implements FormTokenService with HS256 JWTs and
// an in-process used-token set.
type FormTokenServiceImpl struct {
	secret []byte
	ttl    time.Duration

	mu   sync.Mutex
	used map[string]time.Time // jti -> expiry
}

// NewFormTokenService creates a new form token service
func NewFormTokenService(cfg *config.FormsConfig) (FormTokenService, error) {
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("form token secret is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = utils.FormTokenTTL
	}
	return &FormTokenServiceImpl{
		secret: []byte(cfg.TokenSecret),
		ttl:    ttl,
		used:   make(map[string]time.Time),
	}, nil
}

func (s *FormTokenServiceImpl) Issue(purpose string) (string, error) {
	now := utils.UTCNow()
	claims := jwt.MapClaims{
		"purpose": purpose,
		"jti":     uuid.New().String(),
		"iat":     now.Unix(),
		"exp":     now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign form token: %w", err)
	}
	return token, nil
}

func (s *FormTokenServiceImpl) Consume(token, purpose string) error {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrFormTokenExpired
		}
		return fmt.Errorf("%w: %v", ErrFormTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return ErrFormTokenInvalid
	}
	if p, _ := claims["purpose"].(string); p != purpose {
		return ErrFormTokenInvalid
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return ErrFormTokenInvalid
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return ErrFormTokenInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune()
	if _, replayed := s.used[jti]; replayed {
		return ErrFormTokenUsed
	}
	s.used[jti] = exp.Time
	return nil
}

// prune drops used entries whose tokens have expired anyway; expiry
// rejects them before the set is consulted. Caller holds s.mu.
func (s *FormTokenServiceImpl) prune() {
	now := utils.UTCNow()
	for jti, exp := range s.used {
		if now.After(exp) {
			delete(s.used, jti)
		}
	}
}

var _ FormTokenService = (*FormTokenServiceImpl)(nil)
