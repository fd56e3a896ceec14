package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/iotconnect-core/internal/token"
)

// Logger defines the logging interface used by the Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// TokenSender delivers a raw verification token to its owner.
// Implementations must not block the caller; delivery is best-effort.
type TokenSender interface {
	SendVerification(email, token string)
}

// ServiceConfig holds the timing parameters of the verification protocol.
type ServiceConfig struct {
	VerificationTTL time.Duration
}

// Service runs the verification-token to user-account protocol.
type Service struct {
	users         UserRepository
	verifications VerificationRepository
	sessions      *Sessions
	sender        TokenSender
	ttl           time.Duration
	logger        Logger
	now           func() time.Time
}

// NewService creates the verification service.
func NewService(users UserRepository, verifications VerificationRepository, sessions *Sessions, sender TokenSender, cfg ServiceConfig) *Service {
	return &Service{
		users:         users,
		verifications: verifications,
		sessions:      sessions,
		sender:        sender,
		ttl:           cfg.VerificationTTL,
		logger:        noopLogger{},
		now:           time.Now,
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// Sessions returns the session codec used to sign verified sessions.
func (s *Service) Sessions() *Sessions {
	return s.sessions
}

// RequestVerification records a new verification for email and hands the
// raw token to the sender. Every call creates a new row. Returns the
// verification id the client presents to Verify.
func (s *Service) RequestVerification(ctx context.Context, rawEmail string) (string, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return "", err
	}

	raw := token.VerificationToken()
	now := s.now().UTC()
	v := &Verification{
		Email:     email,
		TokenHash: HashToken(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.verifications.Create(ctx, v); err != nil {
		return "", err
	}

	s.sender.SendVerification(email, raw)
	s.logger.Debug("verification requested", "verification_id", v.ID)
	return v.ID, nil
}

// Verify checks token against the verification id and, on success, makes
// sure an account exists for the verified email and issues a session.
// Verifications are not consumed; repeating a valid pair returns the same
// account with a fresh session.
func (s *Service) Verify(ctx context.Context, id, rawToken string) (*User, string, error) {
	v, err := s.verifications.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if v.Expired(s.now()) {
		return nil, "", ErrVerificationExpired
	}
	if !TokenMatches(rawToken, v.TokenHash) {
		return nil, "", ErrTokenMismatch
	}

	user, err := s.users.Upsert(ctx, &User{
		Email:      v.Email,
		Username:   UsernameFromEmail(v.Email),
		BrokerUser: token.BrokerCredential(),
		BrokerPass: token.BrokerCredential(),
	})
	if err != nil {
		return nil, "", fmt.Errorf("creating account: %w", err)
	}

	session, err := s.sessions.Issue(user.Email)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user verified", "user_id", user.ID)
	return user, session, nil
}

// ParseSession validates a session token and returns its email.
func (s *Service) ParseSession(tokenString string) (string, error) {
	return s.sessions.Parse(tokenString)
}

// GetUser returns the account for email.
func (s *Service) GetUser(ctx context.Context, email string) (*User, error) {
	return s.users.GetByEmail(ctx, email)
}
