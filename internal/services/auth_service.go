package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"draftly-ai/config"
	"draftly-ai/internal/apis/dtos"
	"draftly-ai/internal/models"
	"draftly-ai/internal/repositories"
	"draftly-ai/internal/utils"
)

type AuthService interface {
	Signup(req *dtos.SignupRequest) (*dtos.AuthResponse, uint32, error)
	Login(req *dtos.LoginRequest) (*dtos.AuthResponse, uint32, error)
	RefreshToken(refreshToken string) (*dtos.RefreshTokenResponse, uint32, error)
	Logout(refreshToken string, accessToken string) (uint32, error)
	GetUser(userID string) (*models.User, uint32, error)
}

type authService struct {
	userRepo   repositories.UserRepository
	jwtService utils.JWTService
	tokenRepo  repositories.TokenRepository
}

func NewAuthService(userRepo repositories.UserRepository, jwtService utils.JWTService, tokenRepo repositories.TokenRepository) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenRepo:  tokenRepo,
	}
}

func (s *authService) Signup(req *dtos.SignupRequest) (*dtos.AuthResponse, uint32, error) {
	existingUser, err := s.userRepo.FindByUsername(req.Username)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if existingUser != nil {
		return nil, http.StatusBadRequest, errors.New("username already exists")
	}

	// Hash password
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	user := models.NewUser(req.Username, hashedPassword)
	if err := s.userRepo.Create(user); err != nil {
		return nil, http.StatusBadRequest, err
	}

	// Generate token
	accessToken, err := s.jwtService.GenerateToken(user.ID.Hex())
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID.Hex())
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	if err := s.tokenRepo.StoreRefreshToken(user.ID.Hex(), *refreshToken); err != nil {
		return nil, http.StatusBadRequest, err
	}

	return &dtos.AuthResponse{
		AccessToken:  *accessToken,
		RefreshToken: *refreshToken,
		User:         *user,
	}, http.StatusCreated, nil
}

func (s *authService) Login(req *dtos.LoginRequest) (*dtos.AuthResponse, uint32, error) {
	authUser, err := s.userRepo.FindByUsername(req.Username)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if authUser == nil {
		return nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}
	if !utils.CheckPasswordHash(req.Password, authUser.Password) {
		return nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}

	accessToken, err := s.jwtService.GenerateToken(authUser.ID.Hex())
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(authUser.ID.Hex())
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	if err := s.tokenRepo.StoreRefreshToken(authUser.ID.Hex(), *refreshToken); err != nil {
		return nil, http.StatusBadRequest, err
	}

	return &dtos.AuthResponse{
		AccessToken:  *accessToken,
		RefreshToken: *refreshToken,
		User:         *authUser,
	}, http.StatusOK, nil
}

func (s *authService) RefreshToken(refreshToken string) (*dtos.RefreshTokenResponse, uint32, error) {
	// Validate the refresh token
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, http.StatusUnauthorized, fmt.Errorf("invalid refresh token")
	}

	// Check if the refresh token exists in Redis
	if !s.tokenRepo.ValidateRefreshToken(*claims, refreshToken) {
		return nil, http.StatusUnauthorized, fmt.Errorf("refresh token not found")
	}

	// Generate new tokens
	accessToken, err := s.jwtService.GenerateToken(*claims)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	return &dtos.RefreshTokenResponse{
		AccessToken: *accessToken,
	}, http.StatusOK, nil
}

func (s *authService) Logout(refreshToken string, accessToken string) (uint32, error) {
	// Validate the refresh token
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return http.StatusUnauthorized, fmt.Errorf("invalid refresh token")
	}

	// Delete the refresh token from Redis
	if err := s.tokenRepo.DeleteRefreshToken(*claims, refreshToken); err != nil {
		return http.StatusInternalServerError, err
	}

	// Blacklist the access token until its original expiration
	if _, err := s.jwtService.ValidateToken(accessToken); err != nil {
		return http.StatusUnauthorized, fmt.Errorf("invalid access token")
	}

	if err := s.tokenRepo.BlacklistToken(accessToken, time.Duration(config.Env.JWTExpirationMilliseconds)*time.Millisecond); err != nil {
		return http.StatusInternalServerError, err
	}

	return http.StatusOK, nil
}

func (s *authService) GetUser(userID string) (*models.User, uint32, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, http.StatusNotFound, err
	}
	if user == nil {
		return nil, http.StatusNotFound, errors.New("user not found")
	}
	return user, http.StatusOK, nil
}
