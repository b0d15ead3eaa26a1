package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"groupsched/internal/docstore"
	"groupsched/internal/domain"
)

const minPasswordLength = 8

// emailIndexDoc maps a normalized email to a user ID so the "email is
// unique" check and the user write land in one transaction.
type emailIndexDoc struct {
	UserID string `json:"user_id"`
}

type userService struct {
	store          docstore.Store
	hasher         domain.PasswordHasher
	tokenIssuer    domain.TokenIssuer
	tokenExpiry    time.Duration
	contextTimeout time.Duration
}

// NewUserService creates a UserService with the given store and auth ports.
func NewUserService(store docstore.Store, hasher domain.PasswordHasher, tokenIssuer domain.TokenIssuer, tokenExpiry, timeout time.Duration) domain.UserService {
	return &userService{
		store:          store,
		hasher:         hasher,
		tokenIssuer:    tokenIssuer,
		tokenExpiry:    tokenExpiry,
		contextTimeout: timeout,
	}
}

func (s *userService) SignUp(ctx context.Context, email, name, password string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// The first account gets the admin role; everyone after is a member
	// until an admin grants more.
	existing, err := s.store.List(ctx, collUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	roles := []string{domain.RoleMember}
	if len(existing) == 0 {
		roles = []string{domain.RoleAdmin, domain.RoleMember}
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Roles:        roles,
		PasswordSalt: salt,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		var idx emailIndexDoc
		err := tx.Get(collUserEmails, email, &idx)
		if err == nil {
			return domain.ErrDuplicateEmail
		}
		if !errors.Is(err, docstore.ErrDocMissing) {
			return fmt.Errorf("check email: %w", err)
		}
		if err := tx.Set(collUsers, user.ID, userDoc(user)); err != nil {
			return fmt.Errorf("write user: %w", err)
		}
		return tx.Set(collUserEmails, email, emailIndexDoc{UserID: user.ID})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) SignIn(ctx context.Context, email, password string) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return "", nil, domain.ErrBadCredentials
	}

	var idx emailIndexDoc
	if err := s.store.Get(ctx, collUserEmails, email, &idx); err != nil {
		if errors.Is(err, docstore.ErrDocMissing) {
			return "", nil, domain.ErrBadCredentials
		}
		return "", nil, fmt.Errorf("get email index: %w", err)
	}
	user, err := s.getUserDoc(ctx, idx.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrBadCredentials
		}
		return "", nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, user.PasswordSalt, password); err != nil {
		return "", nil, domain.ErrBadCredentials
	}
	token, err := s.tokenIssuer.Issue(user.ID, user.Email, user.Roles, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.getUserDoc(ctx, id)
}

// storedUser is the document shape for users. Credentials live in the
// document but are excluded from the API type's JSON, so the conversion is
// explicit here.
type storedUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Roles        []string  `json:"roles"`
	PasswordSalt string    `json:"password_salt"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func userDoc(u *domain.User) storedUser {
	return storedUser{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Roles:        u.Roles,
		PasswordSalt: u.PasswordSalt,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (s *userService) getUserDoc(ctx context.Context, id string) (*domain.User, error) {
	var doc storedUser
	if err := s.store.Get(ctx, collUsers, id, &doc); err != nil {
		if errors.Is(err, docstore.ErrDocMissing) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &domain.User{
		ID:           doc.ID,
		Email:        doc.Email,
		Name:         doc.Name,
		Roles:        doc.Roles,
		PasswordSalt: doc.PasswordSalt,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
