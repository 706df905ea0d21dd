package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"knowledge-governance/internal/model"
	"knowledge-governance/internal/pkg/jwtutil"
	"knowledge-governance/internal/taxonomy"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid username or password")
)

type AuthService struct {
	userRepo      UserStore
	taxonomy      *taxonomy.Taxonomy
	jwtSecret     string
	jwtExpiration time.Duration
}

type RegisterUserInput struct {
	Username   string
	Email      string
	Password   string
	Department string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token string
	User  *model.User
}

func NewAuthService(userRepo UserStore, tx *taxonomy.Taxonomy, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		taxonomy:      tx,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register creates a contributor. The very first account becomes admin so roles can be granted.
func (s *AuthService) Register(ctx context.Context, input RegisterUserInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)
	department := strings.TrimSpace(input.Department)

	if username == "" || email == "" || password == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}
	if department != "" {
		if _, ok := s.taxonomy.Department(department); !ok {
			return nil, ErrInvalidInput
		}
	}

	existingByName, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrUsernameExists
	}

	existingByEmail, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	role := model.RoleContributor
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		role = model.RoleAdmin
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Department:   department,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}
	return s.issue(user)
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.userRepo.GetByID(ctx, id)
}

// AssignRole lets an admin grant approver rights for one department.
func (s *AuthService) AssignRole(ctx context.Context, id uint, role model.Role, department string) (*model.User, error) {
	switch role {
	case model.RoleContributor, model.RoleApprover, model.RoleAdmin:
	default:
		return nil, ErrInvalidInput
	}
	department = strings.TrimSpace(department)
	if role == model.RoleApprover && department == "" {
		return nil, ErrInvalidInput
	}
	if department != "" {
		if _, ok := s.taxonomy.Department(department); !ok {
			return nil, ErrInvalidInput
		}
	}
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	if err := s.userRepo.UpdateRole(ctx, id, role, department); err != nil {
		return nil, err
	}
	user.Role, user.Department = role, department
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, jwtutil.Identity{
		UserID:     user.ID,
		Username:   user.Username,
		Role:       string(user.Role),
		Department: user.Department,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
