package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

type upstreamAuthenticator interface {
	Login(ctx context.Context, email, password string) (upstream.TokenPair, error)
	CurrentUser(ctx context.Context, creds *upstream.Credentials) (upstream.UserProfile, error)
	Register(ctx context.Context, reg upstream.Registration) (upstream.UserProfile, error)
}

type authSessionStore interface {
	Save(session *models.AuthSession)
	Get(id string) (*models.AuthSession, error)
	Delete(id string) bool
}

type workflowPurger interface {
	DeleteByAuthSession(authSessionID string) int
}

// AuthConfig defines configuration for gateway sessions.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	SessionTTL        time.Duration
	Issuer            string
}

// AuthService signs talents in against the backend and issues gateway tokens.
// Upstream tokens never leave the gateway.
type AuthService struct {
	upstream  upstreamAuthenticator
	sessions  authSessionStore
	workflows workflowPurger
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(client upstreamAuthenticator, sessions authSessionStore, workflows workflowPurger, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = config.AccessTokenExpiry
	}
	return &AuthService{
		upstream:  client,
		sessions:  sessions,
		workflows: workflows,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Login exchanges the talent's credentials for a backend token pair and opens a gateway session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	pair, err := s.upstream.Login(ctx, req.Email, req.Password)
	if err != nil {
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		s.logger.Warn("upstream login failed", zap.Error(err))
		return nil, translateUpstream(err, "sign in")
	}

	creds := upstream.NewCredentials(pair)
	userID := upstream.TokenUserID(pair.Access)
	var role models.UserRole
	profile, err := s.upstream.CurrentUser(ctx, creds)
	switch {
	case err == nil:
		role = models.NormalizeRole(profile.UserType)
		if userID == "" {
			userID = profile.ID
		}
	case needsReauth(err):
		return nil, translateUpstream(err, "sign in")
	default:
		// staff routes stay closed to a session without a role
		s.logger.Warn("failed to load user profile", zap.Error(err))
	}
	if userID == "" {
		userID = strings.ToLower(req.Email)
	}

	now := s.now().UTC()
	session := &models.AuthSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		Email:       req.Email,
		Role:        role,
		Credentials: creds,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.config.SessionTTL),
	}

	token, expiresAt, err := s.generateAccessToken(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.sessions.Save(session)
	s.logger.Info("talent signed in", zap.String("user_id", userID), zap.String("role", string(role)), zap.String("session_id", session.ID), zap.String("ip", req.IP))

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(expiresAt.Sub(now).Seconds()),
		Session:     session.Info(),
	}, nil
}

// Register creates a backend account. Backend field errors come back per field.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisteredUser, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}

	profile, err := s.upstream.Register(ctx, upstream.Registration{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		UserType:    req.UserType,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		s.logger.Info("registration rejected", zap.String("email", req.Email), zap.Error(err))
		return nil, translateUpstream(err, "registration")
	}

	user := &models.RegisteredUser{
		ID:        profile.ID,
		Email:     firstNonBlank(profile.Email, req.Email),
		Username:  firstNonBlank(profile.Username, req.Username),
		FirstName: firstNonBlank(profile.FirstName, req.FirstName),
		LastName:  firstNonBlank(profile.LastName, req.LastName),
		Role:      models.NormalizeRole(firstNonBlank(profile.UserType, req.UserType)),
	}
	s.logger.Info("account registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// ValidateToken parses and verifies a gateway access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Authenticate resolves a gateway token to its live session.
func (s *AuthService) Authenticate(tokenString string) (*models.JWTClaims, *models.AuthSession, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.sessions.Get(claims.SessionID)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrReauthRequired, "session expired, please sign in again")
	}
	if session.Credentials == nil || session.Credentials.Revoked() {
		s.Invalidate(session.ID)
		return nil, nil, appErrors.ErrReauthRequired
	}
	return claims, session, nil
}

// Session returns the public view of a live session.
func (s *AuthService) Session(sessionID string) (*models.SessionInfo, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	info := session.Info()
	return &info, nil
}

// Logout drops the session and every workflow it owns.
func (s *AuthService) Logout(_ context.Context, sessionID string) error {
	if !s.sessions.Delete(sessionID) {
		return appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	dropped := s.workflows.DeleteByAuthSession(sessionID)
	s.logger.Info("talent signed out", zap.String("session_id", sessionID), zap.Int("workflows_dropped", dropped))
	return nil
}

// Invalidate ends a session whose upstream tokens can no longer be refreshed.
func (s *AuthService) Invalidate(sessionID string) {
	session, err := s.sessions.Get(sessionID)
	if err == nil && session.Credentials != nil {
		session.Credentials.Revoke()
	}
	s.sessions.Delete(sessionID)
	dropped := s.workflows.DeleteByAuthSession(sessionID)
	s.logger.Info("session invalidated, re-authentication required", zap.String("session_id", sessionID), zap.Int("workflows_dropped", dropped))
}

func (s *AuthService) generateAccessToken(session *models.AuthSession) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	if session.ExpiresAt.Before(expiresAt) {
		expiresAt = session.ExpiresAt
	}
	claims := &models.JWTClaims{
		SessionID: session.ID,
		UserID:    session.UserID,
		Email:     session.Email,
		Role:      session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.UserID,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
