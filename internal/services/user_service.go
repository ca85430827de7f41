package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"fieldserve-backend/internal/auth"
	"fieldserve-backend/internal/metrics"
	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/repositories"
	"fieldserve-backend/internal/sms"
	"fieldserve-backend/internal/timeutil"
	"fieldserve-backend/pkg/utils"
)

const (
	otpLength        = 6
	otpExpiryMinutes = 5
)

var validRoles = map[string]bool{
	models.RoleAdmin:    true,
	models.RoleOwner:    true,
	models.RoleStaff:    true,
	models.RoleEngineer: true,
	models.RoleCustomer: true,
}

// UserService handles login flows and user administration
type UserService struct {
	UserRepo   *repositories.UserRepository
	SMSService sms.SMSProvider
	JWT        *auth.JWTManager
	TOTP       *TOTPService
}

func NewUserService(userRepo *repositories.UserRepository, smsService sms.SMSProvider, jwtManager *auth.JWTManager, totpService *TOTPService) *UserService {
	return &UserService{
		UserRepo:   userRepo,
		SMSService: smsService,
		JWT:        jwtManager,
		TOTP:       totpService,
	}
}

// generateOTP returns a random numeric code of otpLength digits
func generateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpLength, n), nil
}

// SendOTP issues a fresh login OTP to a registered mobile number. A new
// request overwrites any previous unexpired code.
func (s *UserService) SendOTP(ctx context.Context, mobile string) error {
	mobile = utils.NormalizeMobile(mobile)

	user, err := s.UserRepo.GetByMobile(ctx, mobile)
	if err != nil {
		return mapNoRows(err)
	}
	if !user.IsActive {
		return ErrInactiveUser
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	expiresAt := timeutil.Now().Add(otpExpiryMinutes * time.Minute)
	if err := s.UserRepo.SetOTP(ctx, user.ID, code, expiresAt); err != nil {
		return err
	}

	if err := s.SMSService.SendOTP(user.Mobile, code); err != nil {
		metrics.SMSSentTotal.WithLabelValues(models.SMSTypeOTP, "failed").Inc()
		log.Printf("[Auth] OTP delivery failed for user %d: %v", user.ID, err)
		return err
	}
	metrics.SMSSentTotal.WithLabelValues(models.SMSTypeOTP, "sent").Inc()
	return nil
}

// Login verifies a mobile+OTP pair and issues a session token. The OTP is
// single use: it is cleared before the token is returned.
func (s *UserService) Login(ctx context.Context, mobile, otp string) (*models.AuthResponse, error) {
	mobile = utils.NormalizeMobile(mobile)

	user, err := s.UserRepo.GetByMobile(ctx, mobile)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	if user.OTPCode == "" || user.OTPExpiresAt == nil {
		return nil, ErrOTPExpired
	}
	if timeutil.Now().After(*user.OTPExpiresAt) {
		return nil, ErrOTPExpired
	}
	if user.OTPCode != otp {
		return nil, ErrInvalidCredentials
	}

	if err := s.UserRepo.ClearOTP(ctx, user.ID); err != nil {
		return nil, err
	}

	token, err := s.JWT.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// DashboardLogin authenticates an email+password dashboard user. When the
// user has 2FA enabled, it returns a temp token instead of a session token
// and the client must follow up with VerifyTOTPLogin.
func (s *UserService) DashboardLogin(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	email = utils.NormalizeEmail(email)

	user, err := s.UserRepo.GetByEmail(ctx, email)
	if err != nil {
		if mapNoRows(err) == ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	if user.PasswordHash == "" || !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	enabled, err := s.TOTP.IsEnabled(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if enabled {
		tempToken, err := s.JWT.GenerateTempToken(user)
		if err != nil {
			return nil, err
		}
		return &models.AuthResponse{RequiresTOTP: true, TempToken: tempToken}, nil
	}

	token, err := s.JWT.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// VerifyTOTPLogin completes a 2FA login started by DashboardLogin
func (s *UserService) VerifyTOTPLogin(ctx context.Context, tempToken, code string) (*models.AuthResponse, error) {
	claims, err := s.JWT.ValidateTempToken(tempToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.TOTP.Verify(ctx, claims.UserID, code); err != nil {
		return nil, err
	}

	user, err := s.UserRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	token, err := s.JWT.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// CreateUser registers a staff, engineer or customer-side user
func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if req.Name == "" || req.Mobile == "" {
		return nil, fmt.Errorf("name and mobile are required")
	}
	if !validRoles[req.Role] {
		return nil, fmt.Errorf("invalid role: %s", req.Role)
	}

	mobile := utils.NormalizeMobile(req.Mobile)
	email := utils.NormalizeEmail(req.Email)

	if _, err := s.UserRepo.GetByMobile(ctx, mobile); mapNoRows(err) != ErrNotFound {
		if err == nil {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	if email != "" {
		if _, err := s.UserRepo.GetByEmail(ctx, email); mapNoRows(err) != ErrNotFound {
			if err == nil {
				return nil, ErrDuplicate
			}
			return nil, err
		}
	}

	user := &models.User{
		Name:       req.Name,
		Email:      email,
		Mobile:     mobile,
		Role:       req.Role,
		CustomerID: req.CustomerID,
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.IsActive = true
	return user, nil
}

// UpdateUser applies an admin edit to an existing user
func (s *UserService) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.UserRepo.Get(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		email := utils.NormalizeEmail(req.Email)
		if email != user.Email {
			if other, err := s.UserRepo.GetByEmail(ctx, email); err == nil && other.ID != id {
				return nil, ErrDuplicate
			} else if err != nil && mapNoRows(err) != ErrNotFound {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.Mobile != "" {
		mobile := utils.NormalizeMobile(req.Mobile)
		if mobile != user.Mobile {
			if other, err := s.UserRepo.GetByMobile(ctx, mobile); err == nil && other.ID != id {
				return nil, ErrDuplicate
			} else if err != nil && mapNoRows(err) != ErrNotFound {
				return nil, err
			}
			user.Mobile = mobile
		}
	}
	if req.Role != "" {
		if !validRoles[req.Role] {
			return nil, fmt.Errorf("invalid role: %s", req.Role)
		}
		user.Role = req.Role
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.UserRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.UserRepo.Get(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return user, nil
}

// ListStaff returns back-office users visible on the dashboard
func (s *UserService) ListStaff(ctx context.Context) ([]*models.User, error) {
	return s.UserRepo.ListByRole(ctx, models.RoleAdmin, models.RoleStaff)
}

// ListEngineers returns field engineers available for assignment
func (s *UserService) ListEngineers(ctx context.Context) ([]*models.User, error) {
	return s.UserRepo.ListByRole(ctx, models.RoleEngineer)
}

// EngineerDropdown returns {id, label} pairs for the assignment picker
func (s *UserService) EngineerDropdown(ctx context.Context) ([]*models.DropdownItem, error) {
	return s.UserRepo.Dropdown(ctx, models.RoleEngineer)
}

// UpdateFCMToken registers the caller's device push token
func (s *UserService) UpdateFCMToken(ctx context.Context, userID int, token string) error {
	return s.UserRepo.UpdateFCMToken(ctx, userID, token)
}
