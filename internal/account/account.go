package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/rx3lixir/amparo/internal/backend"
)

// API is the slice of the backend contract the account flows need.
type API interface {
	CreateUser(ctx context.Context, req backend.UserCreateRequest) (*backend.UserProfileResponse, error)
	RegisterDevice(ctx context.Context, req backend.DeviceRegistrationRequest) error
	DeviceProfile(ctx context.Context, deviceID string) (*backend.DeviceProfile, error)
	UpdateDeviceProfile(ctx context.Context, deviceID string, req backend.UpdateDeviceProfileRequest) error
}

// Store persists the device/user pairing.
type Store interface {
	GetOrCreateDeviceID() (string, error)
	SaveCredentials(deviceID, userID string) error
	IsRegistered() bool
}

// Service runs registration and the health profile flows.
type Service struct {
	api   API
	store Store
	log   *log.Logger
}

func NewService(api API, store Store, logger *log.Logger) *Service {
	return &Service{api: api, store: store, log: logger}
}

// Register creates the user, registers the device with its emergency
// contact, and persists the pairing. Nothing is saved locally unless
// every backend step succeeded.
func (s *Service) Register(ctx context.Context, fullName, contact, phone string) error {
	if strings.TrimSpace(fullName) == "" || strings.TrimSpace(contact) == "" || strings.TrimSpace(phone) == "" {
		return fmt.Errorf("name, contact and phone are all required")
	}

	user, err := s.api.CreateUser(ctx, backend.UserCreateRequest{FullName: fullName})
	if err != nil {
		s.log.Error("Failed to create user", "error", err)
		return err
	}

	deviceID, err := s.store.GetOrCreateDeviceID()
	if err != nil {
		return err
	}

	err = s.api.RegisterDevice(ctx, backend.DeviceRegistrationRequest{
		DeviceID:         deviceID,
		UserID:           user.ID,
		EmergencyContact: contact,
		EmergencyPhone:   phone,
	})
	if err != nil {
		s.log.Error("Failed to register device", "error", err)
		return err
	}

	if err := s.store.SaveCredentials(deviceID, user.ID); err != nil {
		return err
	}

	s.log.Info("Device registered", "device_id", deviceID, "user_id", user.ID)
	return nil
}
