package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/iotconnect-core/internal/auth"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/logging"
	"github.com/nerrad567/iotconnect-core/internal/token"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry issues, initialises and authenticates devices.
type Registry struct {
	repo     Repository
	recorders []PresenceRecorder
	logger   Logger
	now      func() time.Time

	// Seams for tests; production uses the token profiles and Argon2id.
	newKey     func() string
	newPass    func() string
	hashSecret func(string) (string, error)
}

// NewRegistry creates a new device registry backed by repo.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:       repo,
		logger:     noopLogger{},
		now:        time.Now,
		newKey:     token.DeviceKey,
		newPass:    token.DevicePass,
		hashSecret: auth.HashSecret,
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// AddPresenceRecorder attaches a recorder for status updates. Recorders
// run in the order they were added.
func (r *Registry) AddPresenceRecorder(rec PresenceRecorder) {
	r.recorders = append(r.recorders, rec)
}

// IssueDevice creates an unregistered device for ownerEmail and returns its
// key and raw pass. The pass is returned only here.
func (r *Registry) IssueDevice(ctx context.Context, ownerEmail, name string) (*Issued, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	key, pass := r.newKey(), r.newPass()
	hash, err := r.hashSecret(pass)
	if err != nil {
		return nil, fmt.Errorf("hashing device pass: %w", err)
	}

	d := &Device{
		Name:       name,
		Key:        key,
		PassHash:   hash,
		Status:     StatusUnregistered,
		OwnerEmail: ownerEmail,
	}
	if err := r.repo.Create(ctx, d); err != nil {
		if errors.Is(err, ErrDeviceKeyConflict) {
			r.logger.Error("device key collision", "device_key", logging.Redact(key))
		}
		return nil, err
	}

	r.logger.Info("device issued", "device_id", d.ID)
	return &Issued{ID: d.ID, Key: key, Pass: pass}, nil
}

// Initialize moves a device online after checking its pass. A wrong pass
// leaves the status unchanged.
func (r *Registry) Initialize(ctx context.Context, key, pass string) (*Device, error) {
	d, err := r.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	ok, err := auth.VerifySecret(pass, d.PassHash)
	if err != nil {
		return nil, fmt.Errorf("verifying device pass: %w", err)
	}
	if !ok {
		r.logger.Warn("device initialize rejected", "device_id", d.ID)
		return nil, ErrWrongPassword
	}

	if err := r.setStatus(ctx, d, StatusOnline); err != nil {
		return nil, err
	}
	return d, nil
}

// SetOnline marks the device online and stamps last_online.
func (r *Registry) SetOnline(ctx context.Context, key string) error {
	return r.setStatusByKey(ctx, key, StatusOnline)
}

// SetOffline marks the device offline. last_online is left as is.
func (r *Registry) SetOffline(ctx context.Context, key string) error {
	return r.setStatusByKey(ctx, key, StatusOffline)
}

// Authenticate returns the device identified by key when pass matches.
// Unknown keys and wrong passes both yield ErrUnauthorized.
func (r *Registry) Authenticate(ctx context.Context, key, pass string) (*Device, error) {
	d, err := r.repo.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	ok, err := auth.VerifySecret(pass, d.PassHash)
	if err != nil || !ok {
		if err != nil {
			r.logger.Error("device pass hash unreadable", "device_id", d.ID, "error", err)
		}
		return nil, ErrUnauthorized
	}
	return d, nil
}

// Get returns a device by ID.
func (r *Registry) Get(ctx context.Context, id string) (*Device, error) {
	return r.repo.GetByID(ctx, id)
}

func (r *Registry) setStatusByKey(ctx context.Context, key string, status Status) error {
	d, err := r.repo.GetByKey(ctx, key)
	if err != nil {
		return err
	}
	return r.setStatus(ctx, d, status)
}

func (r *Registry) setStatus(ctx context.Context, d *Device, status Status) error {
	at := r.now().UTC().Truncate(time.Second)
	if err := r.repo.UpdateStatus(ctx, d.ID, status, at); err != nil {
		return err
	}

	d.Status = status
	if status == StatusOnline {
		d.LastOnline = &at
	}
	r.logger.Debug("device status updated", "device_id", d.ID, "status", status.String())

	for _, rec := range r.recorders {
		if err := rec.RecordPresence(ctx, d.ID, status, at); err != nil {
			r.logger.Warn("recording device presence failed", "device_id", d.ID, "error", err)
		}
	}
	return nil
}
