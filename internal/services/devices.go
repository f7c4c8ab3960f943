package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fitsync-app/fitsync/internal/backend"
	"github.com/fitsync-app/fitsync/internal/common"
	"github.com/fitsync-app/fitsync/internal/logging"
	"github.com/fitsync-app/fitsync/internal/models"
	"github.com/fitsync-app/fitsync/internal/polar"
)

// vendorLinker is the slice of the vendor client that device linking uses.
type vendorLinker interface {
	ExchangeCode(ctx context.Context, code string) (*polar.Token, error)
	RegisterUser(ctx context.Context, accessToken, memberID string) (*polar.UserRecord, error)
}

// DeviceService manages the user's linked wearables.
type DeviceService struct {
	store  backend.RowStore
	vendor vendorLinker
	ident  identity
	logger logging.Logger
	now    func() time.Time
}

func NewDeviceService(store backend.RowStore, vendor vendorLinker, ident identity, logger logging.Logger) *DeviceService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DeviceService{
		store:  store,
		vendor: vendor,
		ident:  ident,
		logger: logger,
		now:    time.Now,
	}
}

// List returns the signed-in user's devices.
func (s *DeviceService) List(ctx context.Context) ([]models.Device, error) {
	userID := s.ident.CurrentUserID()
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}

	var devices []models.Device
	err := s.store.Select(ctx, "devices", &devices, backend.Eq("user_id", userID))
	if err != nil {
		return nil, err
	}
	return devices, nil
}

// Add inserts a device row for the signed-in user. A missing row id is
// generated.
func (s *DeviceService) Add(ctx context.Context, device models.Device) (*models.Device, error) {
	userID := s.ident.CurrentUserID()
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}

	if device.ID == "" {
		device.ID = uuid.NewString()
	}
	device.UserID = userID

	var out models.Device
	if err := s.store.Insert(ctx, "devices", device, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Link completes vendor linking from an authorization code: it exchanges the
// code for a vendor token, registers the local user as a vendor member and
// records the linked device. The vendor token lives only for this call
// chain; nothing retains it afterwards.
func (s *DeviceService) Link(ctx context.Context, code string) (*models.Device, error) {
	userID := s.ident.CurrentUserID()
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}

	token, err := s.vendor.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	rec, err := s.vendor.RegisterUser(ctx, token.AccessToken, userID)
	if err != nil {
		return nil, fmt.Errorf("registering vendor member: %w", err)
	}

	linkedAt := s.now().UTC()
	device := models.Device{
		ID:         uuid.NewString(),
		UserID:     userID,
		DeviceType: models.DeviceTypePolar,
		DeviceID:   strconv.FormatInt(rec.PolarUserID, 10),
		LastSync:   &linkedAt,
	}

	var out models.Device
	if err := s.store.Insert(ctx, "devices", device, &out); err != nil {
		return nil, fmt.Errorf("saving linked device: %w", err)
	}

	s.logger.Info(ctx, "device linked",
		"device_id", out.DeviceID, "device_type", string(out.DeviceType))
	return &out, nil
}
