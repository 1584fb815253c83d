package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitclub-crm/fitclub-api/internal/models"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
)

type fakeProfileUsers struct {
	user *models.SystemUser
}

func (f *fakeProfileUsers) FindByID(context.Context, int64) (*models.SystemUser, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

type fakeProfileParticipants struct {
	participant *models.Participant
}

func (f *fakeProfileParticipants) FindByID(context.Context, int64) (*models.Participant, error) {
	if f.participant == nil {
		return nil, sql.ErrNoRows
	}
	return f.participant, nil
}

func TestProfileResolve_NoPrincipal(t *testing.T) {
	svc := NewProfileService(&fakeProfileUsers{}, &fakeProfileParticipants{}, zap.NewNop())

	_, err := svc.Resolve(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestProfileResolve_UserNotFound(t *testing.T) {
	svc := NewProfileService(&fakeProfileUsers{}, &fakeProfileParticipants{}, zap.NewNop())

	_, err := svc.Resolve(context.Background(), &models.JWTClaims{UserID: 9})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProfileResolve_PlaceholdersWithoutLinkedParticipant(t *testing.T) {
	email := "user@club.local"
	svc := NewProfileService(
		&fakeProfileUsers{user: &models.SystemUser{ID: 1, Email: &email}},
		&fakeProfileParticipants{},
		zap.NewNop(),
	)

	profile, err := svc.Resolve(context.Background(), &models.JWTClaims{UserID: 1})
	require.NoError(t, err)

	assert.Equal(t, "user@club.local", profile.Email)
	assert.Equal(t, "user", profile.Role)
	assert.Equal(t, "+7 (999) 000-00-00", profile.Phone)
	assert.Equal(t, "1990-01-01", profile.BirthDate)
	assert.Equal(t, "2024-01-01", profile.JoinDate)
	assert.Equal(t, "Не указан", profile.EmergencyContact)
	assert.Equal(t, "Не указан", profile.Address)
	assert.Empty(t, profile.FirstName)
	assert.Empty(t, profile.LastName)
}

func TestProfileResolve_LinkedParticipantFieldsCopied(t *testing.T) {
	memberID := int64(5)
	phone := "+7 (900) 111-22-33"
	address := "Lenina 1"
	svc := NewProfileService(
		&fakeProfileUsers{user: &models.SystemUser{ID: 1, Role: "admin", MemberID: &memberID}},
		&fakeProfileParticipants{participant: &models.Participant{
			ID:        memberID,
			FirstName: "Ivan",
			LastName:  "Petrov",
			Phone:     &phone,
			BirthDate: time.Date(1995, 4, 20, 0, 0, 0, 0, time.UTC),
			JoinDate:  time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC),
			Address:   &address,
		}},
		zap.NewNop(),
	)

	profile, err := svc.Resolve(context.Background(), &models.JWTClaims{UserID: 1})
	require.NoError(t, err)

	assert.Equal(t, "admin", profile.Role)
	assert.Equal(t, "Ivan", profile.FirstName)
	assert.Equal(t, "Petrov", profile.LastName)
	assert.Equal(t, phone, profile.Phone)
	assert.Equal(t, "1995-04-20", profile.BirthDate)
	assert.Equal(t, "2023-09-01", profile.JoinDate)
	assert.Equal(t, address, profile.Address)
	// unset linked field still falls back to its placeholder
	assert.Equal(t, "Не указан", profile.EmergencyContact)
}

func TestProfileResolve_DanglingMemberReferenceFallsBack(t *testing.T) {
	memberID := int64(7)
	svc := NewProfileService(
		&fakeProfileUsers{user: &models.SystemUser{ID: 1, MemberID: &memberID}},
		&fakeProfileParticipants{},
		zap.NewNop(),
	)

	profile, err := svc.Resolve(context.Background(), &models.JWTClaims{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "+7 (999) 000-00-00", profile.Phone)
}
