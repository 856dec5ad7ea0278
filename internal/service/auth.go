package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

const minPasswordLength = 8

// AuthService 注册用户，用凭据换取 token
type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (string, *model.User, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.Manager
	cost   int
}

func NewAuthService(users repository.UserRepository, tokens *auth.Manager) AuthService {
	return &authService{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

// signupForm 注册字段及校验规则
type signupForm struct {
	Username string `validate:"required,max=150,slug"`
	Email    string `validate:"required,max=254,email"`
	Password string `validate:"min=8"`
}

func (s *authService) Signup(ctx context.Context, username, email, password string) (*model.User, error) {
	form := signupForm{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if ve := validateSignup(form); ve != nil {
		return nil, ve
	}
	username, email = form.Username, form.Email

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("user %q: %w", username, ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Username: username, Email: email, Password: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("user %q: %w", username, ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func validateSignup(form signupForm) *ValidationError {
	err := formValidator.Struct(form)
	if err == nil {
		return nil
	}
	ve := &ValidationError{}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve.add("form", err.Error())
		return ve
	}
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Username":
			if fe.Tag() == "required" {
				ve.add("username", MsgRequired)
			} else {
				ve.add("username", "Enter a valid username of letters, numbers, underscores or hyphens.")
			}
		case "Email":
			if fe.Tag() == "required" {
				ve.add("email", MsgRequired)
			} else {
				ve.add("email", "Enter a valid email address.")
			}
		case "Password":
			ve.add("password", fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength))
		}
	}
	return ve
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Generate(u.ID, u.Username)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}
