package service

import (
	"context"

	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/gateway"
	"github.com/Ry1and/flockr/internal/models"
)

// UserService handles profile lookups and updates.
type UserService struct {
	users   database.UserRepository
	gateway gateway.Dispatcher
}

// NewUserService creates a UserService.
func NewUserService(users database.UserRepository, gw gateway.Dispatcher) *UserService {
	return &UserService{users: users, gateway: gw}
}

// GetByID returns a user's profile.
func (s *UserService) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, internalError("users.GetByID", err)
	}
	if user == nil {
		return nil, unknownUser()
	}
	return user, nil
}

// List returns every registered user.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, internalError("users.List", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// SetName changes the caller's first and last name.
func (s *UserService) SetName(ctx context.Context, userID int64, nameFirst, nameLast string) (*models.User, error) {
	if err := validateNames(nameFirst, nameLast); err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.NameFirst = nameFirst
	user.NameLast = nameLast
	return s.save(ctx, user)
}

// SetEmail changes the caller's email address.
func (s *UserService) SetEmail(ctx context.Context, userID int64, email string) (*models.User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	owner, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, internalError("users.GetByEmail", err)
	}
	if owner != nil && owner.ID != userID {
		return nil, Conflict("EMAIL_TAKEN", "email address is already in use")
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Email = email
	return s.save(ctx, user)
}

// SetHandle changes the caller's handle.
func (s *UserService) SetHandle(ctx context.Context, userID int64, handle string) (*models.User, error) {
	if err := validateHandle(handle); err != nil {
		return nil, err
	}

	owner, err := s.users.GetByHandle(ctx, handle)
	if err != nil {
		return nil, internalError("users.GetByHandle", err)
	}
	if owner != nil && owner.ID != userID {
		return nil, Conflict("HANDLE_TAKEN", "handle is already in use")
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Handle = handle
	return s.save(ctx, user)
}

func (s *UserService) save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case database.IsUniqueViolation(err, database.ConstraintUserEmail):
			return nil, Conflict("EMAIL_TAKEN", "email address is already in use")
		case database.IsUniqueViolation(err, database.ConstraintUserHandle):
			return nil, Conflict("HANDLE_TAKEN", "handle is already in use")
		}
		return nil, internalError("users.Update", err)
	}
	s.gateway.DispatchToAll(gateway.EventUserUpdate, user)
	return user, nil
}
