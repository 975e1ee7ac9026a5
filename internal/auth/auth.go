package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wuwenbin0122/lingolink/internal/db"
	"github.com/wuwenbin0122/lingolink/internal/models"
	"github.com/wuwenbin0122/lingolink/internal/presence"
)

const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72

	avatarURLPattern       = "https://avatar.iran.liara.run/public/%d.png"
	defaultPresenceTimeout = 5 * time.Second
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserStore persists user records; see db.UserStore.
type UserStore = db.UserStore

type SignupInput struct {
	Email    string
	Password string
	FullName string
}

type LoginInput struct {
	Email    string
	Password string
}

type OnboardInput struct {
	FullName         string
	Bio              string
	Location         string
	NativeLanguage   string
	LearningLanguage string
	ProfilePicture   string
}

type Result struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

type Options struct {
	Store           UserStore
	Tokens          *TokenIssuer
	Revoker         Revoker
	Presence        presence.Syncer
	Logger          *zap.Logger
	Avatar          func() string
	BcryptCost      int
	PresenceTimeout time.Duration
}

type Service struct {
	store           UserStore
	tokens          *TokenIssuer
	revoker         Revoker
	presence        presence.Syncer
	logger          *zap.Logger
	avatar          func() string
	bcryptCost      int
	presenceTimeout time.Duration
}

func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("auth: user store required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("auth: token issuer required")
	}

	s := &Service{
		store:           opts.Store,
		tokens:          opts.Tokens,
		revoker:         opts.Revoker,
		presence:        opts.Presence,
		logger:          opts.Logger,
		avatar:          opts.Avatar,
		bcryptCost:      opts.BcryptCost,
		presenceTimeout: opts.PresenceTimeout,
	}
	if s.revoker == nil {
		s.revoker = NewMemoryRevoker()
	}
	if s.presence == nil {
		s.presence = presence.Noop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.avatar == nil {
		s.avatar = RandomAvatar
	}
	if s.presenceTimeout <= 0 {
		s.presenceTimeout = defaultPresenceTimeout
	}

	return s, nil
}

// SessionTTL is the lifetime of issued session tokens.
func (s *Service) SessionTTL() time.Duration { return s.tokens.TTL() }

func (s *Service) Signup(ctx context.Context, input SignupInput) (*Result, error) {
	email := strings.TrimSpace(input.Email)
	fullName := strings.TrimSpace(input.FullName)
	password := input.Password

	if email == "" || password == "" || fullName == "" {
		return nil, &ValidationError{Message: "Please fill all the fields"}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, &ValidationError{Message: fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength)}
	}
	// bcrypt only accepts the first 72 bytes and refuses longer input.
	if len(password) > MaxPasswordBytes {
		return nil, &ValidationError{Message: fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes)}
	}
	if !emailPattern.MatchString(email) {
		return nil, &ValidationError{Message: "Invalid email format"}
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("auth: lookup email: %w", err)
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName:       fullName,
		Email:          email,
		PasswordHash:   hash,
		ProfilePicture: s.avatar(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}

	s.syncPresence(ctx, user, "signup")

	return s.newResult(user)
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*Result, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, &ValidationError{Message: "Please fill all the fields"}
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("auth: lookup email: %w", err)
	}

	ok, err := CheckPassword(user.PasswordHash, input.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.newResult(user)
}

// Logout revokes token when it is still valid. It never fails: an absent or
// unverifiable token has nothing left to revoke.
func (s *Service) Logout(ctx context.Context, token string) {
	if strings.TrimSpace(token) == "" {
		return
	}

	claims, err := s.tokens.Verify(token)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}

	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Warn("session revocation failed",
			zap.String("user_id", claims.Subject),
			zap.Error(err),
		)
	}
}

func (s *Service) Onboard(ctx context.Context, userID string, input OnboardInput) (*models.User, error) {
	update := models.ProfileUpdate{
		FullName:         strings.TrimSpace(input.FullName),
		Bio:              strings.TrimSpace(input.Bio),
		Location:         strings.TrimSpace(input.Location),
		NativeLanguage:   strings.TrimSpace(input.NativeLanguage),
		LearningLanguage: strings.TrimSpace(input.LearningLanguage),
		ProfilePicture:   strings.TrimSpace(input.ProfilePicture),
	}

	var missing, missingOptional []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"fullName", update.FullName},
		{"bio", update.Bio},
		{"location", update.Location},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if update.NativeLanguage == "" {
		missingOptional = append(missingOptional, "nativeLanguage")
	}
	if update.LearningLanguage == "" {
		missingOptional = append(missingOptional, "learningLanguage")
	}

	if len(missing) > 0 {
		return nil, &ValidationError{
			Message:         "Please fill all the fields",
			MissingFields:   missing,
			MissingOptional: missingOptional,
		}
	}

	user, err := s.store.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("auth: update profile: %w", err)
	}

	s.syncPresence(ctx, user, "onboarding")

	sanitized := user.Sanitize()
	return &sanitized, nil
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoSession
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	if claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("auth: check revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: session revoked", ErrInvalidToken)
		}
	}

	user, err := s.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}

	sanitized := user.Sanitize()
	return &sanitized, nil
}

func (s *Service) newResult(user *models.User) (*Result, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &Result{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.Sanitize(),
	}, nil
}

// syncPresence mirrors the user into the chat service. Failures are logged only.
func (s *Service) syncPresence(ctx context.Context, user *models.User, action string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.presenceTimeout)
	defer cancel()

	err := s.presence.UpsertUser(ctx, presence.User{
		ID:    user.ID,
		Name:  user.FullName,
		Image: user.ProfilePicture,
	})
	if err != nil {
		s.logger.Warn("presence sync failed",
			zap.String("action", action),
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("presence user synced",
		zap.String("action", action),
		zap.String("user_id", user.ID),
	)
}

// RandomAvatar picks one of the hosted avatar images at random.
func RandomAvatar() string {
	return fmt.Sprintf(avatarURLPattern, rand.IntN(100)+1)
}
