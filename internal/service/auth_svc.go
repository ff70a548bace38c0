package service

import (
	"context"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"harvest_hub_v2_202601/internal/apperr"
	"harvest_hub_v2_202601/internal/middleware"
	"harvest_hub_v2_202601/internal/model"
	"harvest_hub_v2_202601/internal/repository"
)

// ==================== 格式校验 ====================

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^\d{10}$`)
)

// 密码至少 8 位，含大小写字母、数字和特殊字符
// Go 正则不支持前瞻，拆成多条判断
func isValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, ch := range password {
		switch {
		case ch >= 'a' && ch <= 'z':
			hasLower = true
		case ch >= 'A' && ch <= 'Z':
			hasUpper = true
		case ch >= '0' && ch <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSpecial
}

// ==================== AuthService ====================

// AuthService 注册/登录
type AuthService struct {
	UserRepo repository.UserRepository
}

// NewAuthService 工厂方法
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{UserRepo: userRepo}
}

// SignupInput 注册入参
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	PhoneNo  string
}

// AuthResult 注册/登录出参
type AuthResult struct {
	Token string
	User  *model.User
}

// Signup 用户注册，Admin 角色不允许自助注册
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	if input.Role == model.RoleAdmin {
		return nil, apperr.Authorization("管理员账号不允许注册")
	}
	if input.Role != model.RoleFarmer && input.Role != model.RoleBuyer {
		return nil, apperr.Validation(apperr.CodeInvalidAction, "角色只能是 Farmer 或 Buyer")
	}
	if !emailRegex.MatchString(input.Email) {
		return nil, apperr.Validation(apperr.CodeMissingField, "邮箱格式不正确")
	}
	if !phoneRegex.MatchString(input.PhoneNo) {
		return nil, apperr.Validation(apperr.CodeMissingField, "手机号须为 10 位数字")
	}
	if !isValidPassword(input.Password) {
		return nil, apperr.Validation(apperr.CodeMissingField,
			"密码至少 8 位，需包含大小写字母、数字和特殊字符")
	}

	exists, err := s.UserRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, apperr.Internal("用户查询失败", err)
	}
	if exists {
		return nil, apperr.Conflict(apperr.CodeEmailTaken, "该邮箱已注册")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("密码处理失败", err)
	}

	user := &model.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
		Role:     input.Role,
		PhoneNo:  input.PhoneNo,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, apperr.Internal("用户创建失败", err)
	}

	token, err := middleware.GenerateAccessToken(user.ID, user.Name, user.Role)
	if err != nil {
		return nil, apperr.Internal("Token 签发失败", err)
	}

	return &AuthResult{Token: token, User: user}, nil
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.UserRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("用户查询失败", err)
	}
	if user == nil {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "用户不存在")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.Authorization("邮箱或密码不正确")
	}

	token, err := middleware.GenerateAccessToken(user.ID, user.Name, user.Role)
	if err != nil {
		return nil, apperr.Internal("Token 签发失败", err)
	}

	return &AuthResult{Token: token, User: user}, nil
}
