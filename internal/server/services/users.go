// Package services contains the consistency rules of the handover tracker.
// UserService resolves and registers users and issues their tokens.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/handover/internal/common"
	"github.com/dmitrijs2005/handover/internal/logging"
	"github.com/dmitrijs2005/handover/internal/server/auth"
	"github.com/dmitrijs2005/handover/internal/server/config"
	"github.com/dmitrijs2005/handover/internal/server/models"
	"github.com/dmitrijs2005/handover/internal/server/repositories/repomanager"
)

// UnknownUserName is shown for users whose record has expired.
const UnknownUserName = "Bilinmeyen"

const minNameLength = 2

// LoginResult is the user behind a login together with a signed token
// identifying them.
type LoginResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type UserService struct {
	repomanager           repomanager.RepositoryManager
	logger                logging.Logger
	jwtSecret             []byte
	tokenValidityDuration time.Duration
	now                   func() time.Time
}

func NewUserService(m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *UserService {
	return &UserService{
		repomanager:           m,
		logger:                l.With("module", "user_service"),
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
		now:                   time.Now,
	}
}

// Create registers userName. When a user with that name already exists it is
// returned instead of creating a second record.
func (s *UserService) Create(ctx context.Context, userName string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, common.Validation("Kullanıcı adı gereklidir")
	}

	repo := s.repomanager.Users()

	existing, err := repo.GetByUserName(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := s.now()
	u, err := repo.Create(ctx, &models.User{
		ID:        common.NewID(common.PrefixUser, now),
		UserName:  userName,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user created", "user_id", u.ID, "username", u.UserName)
	return u, nil
}

// GetOrCreate is Create with the minimum length rule applied to the name.
func (s *UserService) GetOrCreate(ctx context.Context, userName string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, common.Validation("Kullanıcı adı gereklidir")
	}
	if utf8.RuneCountInString(userName) < minNameLength {
		return nil, common.Validation("Kullanıcı adı en az 2 karakter olmalıdır")
	}
	return s.Create(ctx, userName)
}

// Login resolves or registers userName and returns a token for the user.
func (s *UserService) Login(ctx context.Context, userName string) (*LoginResult, error) {
	u, err := s.GetOrCreate(ctx, userName)
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(u.ID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		s.logger.Error(ctx, "token generation failed", "user_id", u.ID, "error", err)
		return nil, common.ErrorInternal
	}

	return &LoginResult{User: u, Token: token}, nil
}

// Authenticate maps a token back to a live user. An expired user record
// yields common.ErrorUnauthorized even if the token is still valid.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, common.ErrorUnauthorized
	}
	return u, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error reading user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	u, err := s.repomanager.Users().GetByUserName(ctx, strings.TrimSpace(userName))
	if err != nil {
		return nil, fmt.Errorf("error reading user: %w", err)
	}
	return u, nil
}

// List returns every live user, most recently registered first.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return list, nil
}

// userNames resolves ids to usernames. Unknown ids are absent from the map.
func (s *UserService) userNames(ctx context.Context, ids []string) (map[string]string, error) {
	list, err := s.repomanager.Users().GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error reading users: %w", err)
	}

	names := make(map[string]string, len(list))
	for _, u := range list {
		names[u.ID] = u.UserName
	}
	return names, nil
}
