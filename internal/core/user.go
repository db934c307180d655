package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/herense/cloudsentinel/internal/model"
	"github.com/herense/cloudsentinel/internal/platform"
)

type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

type RegisterParams struct {
	Email     string
	Password  string
	Firstname string
	Lastname  string
}

func (s *UserService) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	var existingID string
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, params.Email).Scan(&existingID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("user with this email: %w", ErrConflict)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("check duplicate user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:             platform.NewID(),
		Email:          params.Email,
		Firstname:      params.Firstname,
		Lastname:       params.Lastname,
		HashedPassword: string(hashed),
		IsActive:       true,
		CreatedAt:      time.Now(),
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO users (id, email, firstname, lastname, hashed_password, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.Firstname, user.Lastname, user.HashedPassword, user.IsActive, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

// Login verifies the email/password pair and issues a fresh bearer token.
// Only a SHA-256 hash of the token is stored; the plaintext is returned once.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	var id, hashedPassword string
	var isActive bool
	err := s.db.QueryRow(ctx,
		`SELECT id, hashed_password, is_active FROM users WHERE email = $1`, email,
	).Scan(&id, &hashedPassword, &isActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("get user by email: %w", err)
	}
	if !isActive {
		return "", ErrUnauthenticated
	}
	if bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) != nil {
		return "", ErrUnauthenticated
	}

	token := platform.NewToken()

	_, err = s.db.Exec(ctx,
		`UPDATE users SET api_token_hash = $1 WHERE id = $2`, hashToken(token), id)
	if err != nil {
		return "", fmt.Errorf("store token hash: %w", err)
	}

	return token, nil
}

// GetByToken resolves the caller identity from a bearer token.
func (s *UserService) GetByToken(ctx context.Context, token string) (*model.Identity, error) {
	var identity model.Identity
	err := s.db.QueryRow(ctx,
		`SELECT id, email FROM users WHERE api_token_hash = $1 AND is_active`, hashToken(token),
	).Scan(&identity.UserID, &identity.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("get user by token: %w", err)
	}
	return &identity, nil
}

// Get returns a user's profile by ID.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, email, firstname, lastname, is_active, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Firstname, &u.Lastname, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
