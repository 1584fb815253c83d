package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/fitclub-crm/fitclub-api/internal/dto"
	"github.com/fitclub-crm/fitclub-api/internal/models"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
)

// Placeholder values substituted for unset profile fields. The frontend
// expects these exact literals, so they are part of the contract.
const (
	placeholderPhone            = "+7 (999) 000-00-00"
	placeholderBirthDate        = "1990-01-01"
	placeholderJoinDate         = "2024-01-01"
	placeholderEmergencyContact = "Не указан"
	placeholderAddress          = "Не указан"
)

type profileUserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.SystemUser, error)
}

type profileParticipantRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Participant, error)
}

// ProfileService resolves the self-service profile of an authenticated
// principal. It only ever sees verified claims, never raw tokens.
type ProfileService struct {
	users        profileUserRepository
	participants profileParticipantRepository
	logger       *zap.Logger
}

// NewProfileService constructs the profile service.
func NewProfileService(users profileUserRepository, participants profileParticipantRepository, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{users: users, participants: participants, logger: logger}
}

// Resolve builds the profile projection for the given claims. A linked
// participant that no longer exists is logged and falls back to the
// placeholder set, never a fault.
func (s *ProfileService) Resolve(ctx context.Context, claims *models.JWTClaims) (*dto.ProfileResponse, error) {
	if claims == nil || claims.UserID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no authenticated principal")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	profile := &dto.ProfileResponse{
		Role: user.EffectiveRole(),
	}
	if user.Email != nil {
		profile.Email = *user.Email
	}

	if user.MemberID != nil {
		participant, err := s.participants.FindByID(ctx, *user.MemberID)
		switch {
		case err == sql.ErrNoRows:
			s.logger.Warn("linked participant no longer exists",
				zap.Int64("user_id", user.ID),
				zap.Int64("member_id", *user.MemberID),
			)
		case err != nil:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load linked participant")
		default:
			profile.FirstName = participant.FirstName
			profile.LastName = participant.LastName
			if participant.Phone != nil {
				profile.Phone = *participant.Phone
			}
			if !participant.BirthDate.IsZero() {
				profile.BirthDate = participant.BirthDate.Format("2006-01-02")
			}
			if !participant.JoinDate.IsZero() {
				profile.JoinDate = participant.JoinDate.Format("2006-01-02")
			}
			if participant.EmergencyContact != nil {
				profile.EmergencyContact = *participant.EmergencyContact
			}
			if participant.Address != nil {
				profile.Address = *participant.Address
			}
		}
	}

	applyProfilePlaceholders(profile)
	return profile, nil
}

func applyProfilePlaceholders(profile *dto.ProfileResponse) {
	if profile.Phone == "" {
		profile.Phone = placeholderPhone
	}
	if profile.BirthDate == "" {
		profile.BirthDate = placeholderBirthDate
	}
	if profile.JoinDate == "" {
		profile.JoinDate = placeholderJoinDate
	}
	if profile.EmergencyContact == "" {
		profile.EmergencyContact = placeholderEmergencyContact
	}
	if profile.Address == "" {
		profile.Address = placeholderAddress
	}
}
