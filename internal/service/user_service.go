package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/academia-sys/academia-api/internal/models"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id int64) error
}

type userPersonRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Person, error)
}

// CreateUserRequest holds payload for creating accounts. Teacher and
// student accounts must link to a person record of the matching kind.
type CreateUserRequest struct {
	Username string      `json:"username" validate:"required,min=3"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"required"`
	PersonID *int64      `json:"person_id,omitempty"`
}

// UserService handles account administration use-cases.
type UserService struct {
	repo      userRepository
	people    userPersonRepository
	auth      *AuthService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the user service. Auth may be nil; email
// verification tokens are then skipped.
func NewUserService(repo userRepository, people userPersonRepository, auth *AuthService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, people: people, auth: auth, validator: validate, logger: logger}
}

// List returns accounts and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.FromError(err)
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

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.FromError(err)
	}
	return user, nil
}

// Create registers a new account. The returned verification token lets
// the caller hand it to the account holder out of band.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if !req.Role.Valid() {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	exists, err := s.repo.ExistsByUsername(ctx, req.Username, 0)
	if err != nil {
		return nil, "", appErrors.FromError(err)
	}
	if exists {
		return nil, "", appErrors.Clone(appErrors.ErrConflict, "username already used")
	}

	if err := s.checkPersonLink(ctx, req.Role, req.PersonID); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		PersonID:     req.PersonID,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, "", appErrors.FromError(err)
	}

	var verifyToken string
	if s.auth != nil {
		verifyToken, err = s.auth.EmailVerificationToken(user)
		if err != nil {
			s.logger.Warn("failed to issue verification token", zap.Int64("user_id", user.ID), zap.Error(err))
			verifyToken = ""
		}
	}
	return user, verifyToken, nil
}

// Deactivate marks an account inactive, ending its sessions at the next
// token resolution.
func (s *UserService) Deactivate(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.FromError(err)
	}
	return nil
}

// checkPersonLink enforces the role/person pairing rules: app roles need
// a person of the matching kind, admin accounts stay unlinked or link to
// staff.
func (s *UserService) checkPersonLink(ctx context.Context, role models.Role, personID *int64) error {
	if personID == nil {
		if role == models.RoleSystemAdmin {
			return nil
		}
		return appErrors.Clone(appErrors.ErrValidation, "role requires a linked person")
	}
	person, err := s.people.FindByID(ctx, *personID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "person not found")
		}
		return appErrors.FromError(err)
	}
	switch role {
	case models.RoleTeacherApp:
		if person.Kind != models.PersonKindTeacher {
			return appErrors.Clone(appErrors.ErrValidation, "teacher role requires a teacher person")
		}
	case models.RoleStudentApp:
		if person.Kind != models.PersonKindStudent {
			return appErrors.Clone(appErrors.ErrValidation, "student role requires a student person")
		}
	case models.RoleSystemAdmin:
		if person.Kind != models.PersonKindStaff {
			return appErrors.Clone(appErrors.ErrValidation, "admin role may only link to staff")
		}
	}
	return nil
}
