package operators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"route-ops/internal/models"
	"route-ops/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// ServiceInterface defines operator account business logic.
type ServiceInterface interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GetProfile(ctx context.Context, operatorID string) (*models.Operator, error)
	HandleGoogleLogin() (string, error)
	HandleGoogleCallback(ctx context.Context, code string) (*models.AuthResponse, error)
}

// Service implements ServiceInterface.
type Service struct {
	repo              RepositoryInterface
	jwtSecret         string
	googleOAuthConfig *oauth2.Config
}

// NewService creates a new operator service.
func NewService(repo RepositoryInterface, jwtSecret string, googleOAuthConfig *oauth2.Config) ServiceInterface {
	return &Service{
		repo:              repo,
		jwtSecret:         jwtSecret,
		googleOAuthConfig: googleOAuthConfig,
	}
}

// googleUserInfo unmarshals the Google userinfo response.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// generateAuthResponse issues an HS256 JWT for the operator.
func (s *Service) generateAuthResponse(op *models.Operator) (*models.AuthResponse, error) {
	claims := &models.JwtCustomClaims{
		OperatorID: op.ID,
		Email:      op.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24 * 30)),
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := accessToken.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	op.PasswordHash = "" // never send the hash back

	return &models.AuthResponse{
		AccessToken: signed,
		Operator:    op,
	}, nil
}

// Signup registers a new operator and logs them in.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.Signup.FindByEmail: %w", err)
	}
	if err == nil {
		return nil, models.ErrConflict
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.Signup.HashPassword: %w", err)
	}

	created, err := s.repo.Create(ctx, &models.Operator{Name: req.Name, Email: req.Email}, string(hashedPassword))
	if err != nil {
		return nil, fmt.Errorf("service.Signup.Create: %w", err)
	}

	return s.generateAuthResponse(created)
}

// Login authenticates an operator by email and password.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	opWithHash, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service.Login.FindByEmail: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(opWithHash.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return s.generateAuthResponse(opWithHash)
}

// GetProfile returns the operator's account details.
func (s *Service) GetProfile(ctx context.Context, operatorID string) (*models.Operator, error) {
	op, err := s.repo.FindByID(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("service.GetProfile: %w", err)
	}
	op.PasswordHash = ""
	return op, nil
}

// HandleGoogleLogin generates the redirect URL for the user. The state
// parameter is for CSRF protection.
func (s *Service) HandleGoogleLogin() (string, error) {
	state, err := utils.GenerateSecureToken(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate state for google login: %w", err)
	}
	return s.googleOAuthConfig.AuthCodeURL(state), nil
}

// HandleGoogleCallback processes the callback from Google, completing the
// login/signup.
func (s *Service) HandleGoogleCallback(ctx context.Context, code string) (*models.AuthResponse, error) {
	token, err := s.googleOAuthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange failed: %w", err)
	}

	response, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info from google: %w", err)
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading user info response body: %w", err)
	}

	var info googleUserInfo
	if err := json.Unmarshal(contents, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user info: %w", err)
	}
	if !info.VerifiedEmail {
		return nil, fmt.Errorf("google email not verified")
	}

	op, err := s.repo.FindByEmail(ctx, info.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("db error while finding operator by email: %w", err)
	}

	if errors.Is(err, models.ErrNotFound) {
		op, err = s.repo.CreateOAuthOperator(ctx, &models.Operator{
			Name:           info.Name,
			Email:          info.Email,
			AuthProvider:   "google",
			AuthProviderID: info.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	return s.generateAuthResponse(op)
}
