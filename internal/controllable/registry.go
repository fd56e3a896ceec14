package controllable

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/iotconnect-core/internal/device"
	"github.com/nerrad567/iotconnect-core/internal/token"
)

// Logger defines the logging interface used by the Registry.
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

// DeviceGetter resolves devices by ID.
type DeviceGetter interface {
	Get(ctx context.Context, id string) (*device.Device, error)
}

// maxTopicAttempts bounds regeneration of a colliding topic name.
const maxTopicAttempts = 3

// Registry creates and resolves controllables.
type Registry struct {
	repo       Repository
	categories CategoryRepository
	devices    DeviceGetter
	logger     Logger
	newTopic   func() string
}

// NewRegistry creates a controllable registry.
func NewRegistry(repo Repository, categories CategoryRepository, devices DeviceGetter) *Registry {
	return &Registry{
		repo:       repo,
		categories: categories,
		devices:    devices,
		logger:     noopLogger{},
		newTopic:   token.TopicName,
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Create adds a controllable named name to a device owned by ownerEmail.
// A device owned by someone else is reported as device.ErrDeviceNotFound.
func (r *Registry) Create(ctx context.Context, ownerEmail, deviceID, name, category string) (*Controllable, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	if err := r.categories.Exists(ctx, category); err != nil {
		return nil, err
	}
	if _, err := r.ownedDevice(ctx, ownerEmail, deviceID); err != nil {
		return nil, err
	}

	c := &Controllable{
		DeviceID: deviceID,
		Name:     name,
		Category: category,
	}
	for attempt := 1; ; attempt++ {
		c.ID = ""
		c.TopicName = r.newTopic()
		err := r.repo.Create(ctx, c)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrTopicConflict) || attempt == maxTopicAttempts {
			return nil, err
		}
		r.logger.Warn("topic name collision, regenerating", "attempt", attempt)
	}

	r.logger.Info("controllable created", "controllable_id", c.ID, "device_id", deviceID)
	return c, nil
}

// Lookup returns the controllable name on a device owned by ownerEmail.
func (r *Registry) Lookup(ctx context.Context, ownerEmail, deviceID, name string) (*Controllable, error) {
	if _, err := r.ownedDevice(ctx, ownerEmail, deviceID); err != nil {
		return nil, err
	}
	return r.repo.Get(ctx, deviceID, name)
}

// Connect resolves the topic of the authenticated device's controllable
// together with the owner's broker credentials. Any miss fails the whole
// call and no credential material is returned.
func (r *Registry) Connect(ctx context.Context, d *device.Device, name string) (*Credentials, error) {
	creds, err := r.repo.Credentials(ctx, d.ID, name, d.OwnerEmail)
	if err != nil {
		return nil, fmt.Errorf("connecting controllable: %w", err)
	}
	r.logger.Debug("controllable connected", "device_id", d.ID)
	return creds, nil
}

// Categories lists the known category names.
func (r *Registry) Categories(ctx context.Context) ([]string, error) {
	return r.categories.List(ctx)
}

func (r *Registry) ownedDevice(ctx context.Context, ownerEmail, deviceID string) (*device.Device, error) {
	d, err := r.devices.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if d.OwnerEmail != ownerEmail {
		return nil, device.ErrDeviceNotFound
	}
	return d, nil
}
