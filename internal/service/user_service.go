package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitclub-crm/fitclub-api/internal/models"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.SystemUser, int, error)
	FindByID(ctx context.Context, id int64) (*models.SystemUser, error)
	FindByEmail(ctx context.Context, email string) (*models.SystemUser, error)
	Create(ctx context.Context, user *models.SystemUser) error
	Update(ctx context.Context, user *models.SystemUser) error
	Deactivate(ctx context.Context, id int64) error
	RevokeUserRefreshTokens(ctx context.Context, userID int64) error
}

// CreateUserRequest holds payload for creating system users.
type CreateUserRequest struct {
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required,min=8"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     string  `json:"role" validate:"omitempty,oneof=admin user"`
	MemberID *int64  `json:"member_id"`
}

// UpdateUserRequest holds payload for updating system users.
type UpdateUserRequest struct {
	Username string  `json:"username" validate:"required"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     string  `json:"role" validate:"required,oneof=admin user"`
	MemberID *int64  `json:"member_id"`
	Active   bool    `json:"is_active"`
}

// UserService handles system user administration.
type UserService struct {
	repo      userRepository
	changes   *ChangeLogService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the user service.
func NewUserService(repo userRepository, changes *ChangeLogService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, changes: changes, validator: validate, logger: logger}
}

// List returns system users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.SystemUser, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return users, pagination, nil
}

// Get returns one system user.
func (s *UserService) Get(ctx context.Context, id int64) (*models.SystemUser, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create registers a system user with a bcrypt password hash.
func (s *UserService) Create(ctx context.Context, actorID *int64, req CreateUserRequest) (*models.SystemUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if req.Email != nil && *req.Email != "" {
		if _, err := s.repo.FindByEmail(ctx, *req.Email); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
		} else if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	role := req.Role
	if role == "" {
		role = string(models.RoleUser)
	}

	user := &models.SystemUser{
		Username:     req.Username,
		PasswordHash: string(hash),
		Email:        req.Email,
		Role:         role,
		MemberID:     req.MemberID,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.changes.Record(ctx, actorID, "system_users", user.ID, models.ChangeActionCreate, models.UserInfo{
		ID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role,
	})
	return user, nil
}

// Update modifies an existing system user. Passwords rotate through the
// auth service, not here.
func (s *UserService) Update(ctx context.Context, actorID *int64, id int64, req UpdateUserRequest) (*models.SystemUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Username = req.Username
	user.Email = req.Email
	user.Role = req.Role
	user.MemberID = req.MemberID
	user.Active = req.Active

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	s.changes.Record(ctx, actorID, "system_users", user.ID, models.ChangeActionUpdate, models.UserInfo{
		ID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role,
	})
	return user, nil
}

// Deactivate disables a system user and revokes its sessions.
func (s *UserService) Deactivate(ctx context.Context, actorID *int64, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate user")
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, id); err != nil {
		s.logger.Warn("failed to revoke sessions of deactivated user", zap.Int64("user_id", id), zap.Error(err))
	}
	s.changes.Record(ctx, actorID, "system_users", id, models.ChangeActionDelete, nil)
	return nil
}
