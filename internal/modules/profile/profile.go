package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/platform/ctxutil"
	"github.com/yungbote/rikai-backend/internal/platform/kvstore"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

// UserKey holds the serialized current-user profile. Absent means guest.
const UserKey = "rikai_user"

// Service reads and caches the profile supplied by the auth service. It never
// checks credentials.
type Service struct {
	log *logger.Logger
	kv  kvstore.Store
}

func New(log *logger.Logger, kv kvstore.Store) *Service {
	return &Service{log: log.With("service", "ProfileService"), kv: kv}
}

// Current resolves the user for ctx: a verified identity on the context wins,
// then the persisted profile, then the guest.
func (s *Service) Current(ctx context.Context) (domain.User, error) {
	stored, err := s.stored(ctx)
	if err != nil {
		return domain.User{}, err
	}
	id := ctxutil.GetIdentity(ctx)
	if id == nil || strings.TrimSpace(id.UserID) == "" {
		return stored, nil
	}
	u := domain.User{ID: id.UserID, Name: id.Name, Email: id.Email, AvatarID: "1"}
	if stored.ID == id.UserID {
		u.AvatarID, u.Bio = stored.AvatarID, stored.Bio
		if u.Name == "" {
			u.Name = stored.Name
		}
		if u.Email == "" {
			u.Email = stored.Email
		}
	}
	return u, nil
}

func (s *Service) stored(ctx context.Context) (domain.User, error) {
	raw, err := s.kv.Get(ctx, UserKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return domain.GuestUser(), nil
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load profile: %w", err)
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil || strings.TrimSpace(u.ID) == "" {
		s.log.Warn("persisted profile unreadable; using guest", "error", err)
		return domain.GuestUser(), nil
	}
	return u, nil
}

type Update struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	AvatarID *string `json:"avatarId"`
	Bio      *string `json:"bio"`
}

// Save applies the non-nil fields of up to the current user and persists it.
func (s *Service) Save(ctx context.Context, up Update) (domain.User, error) {
	u, err := s.Current(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if up.Name != nil {
		name := strings.TrimSpace(*up.Name)
		if name == "" {
			return domain.User{}, fmt.Errorf("%w: name must not be empty", domain.ErrInvalidInput)
		}
		u.Name = name
	}
	if up.Email != nil {
		u.Email = strings.TrimSpace(*up.Email)
	}
	if up.AvatarID != nil {
		u.AvatarID = strings.TrimSpace(*up.AvatarID)
	}
	if up.Bio != nil {
		u.Bio = strings.TrimSpace(*up.Bio)
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.kv.Set(ctx, UserKey, raw); err != nil {
		return domain.User{}, fmt.Errorf("save profile: %w", err)
	}
	s.log.Info("profile saved", "user_id", u.ID)
	return u, nil
}

// Logout forgets the cached profile; the next Current is the guest.
func (s *Service) Logout(ctx context.Context) (domain.User, error) {
	if err := s.kv.Delete(ctx, UserKey); err != nil {
		return domain.User{}, fmt.Errorf("logout: %w", err)
	}
	return domain.GuestUser(), nil
}
