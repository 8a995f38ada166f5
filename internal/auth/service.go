package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/inamate/modeler/internal/typeid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const tokenTTL = 24 * time.Hour

// Service checks the shared editor password and issues session tokens.
type Service struct {
	passwordHash []byte
	jwtSecret    []byte
	now          func() time.Time
}

// NewService hashes editorPassword once; logins compare against the hash.
func NewService(editorPassword, jwtSecret string) (*Service, error) {
	if editorPassword == "" {
		return nil, errors.New("editor password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(editorPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &Service{
		passwordHash: hash,
		jwtSecret:    []byte(jwtSecret),
		now:          time.Now,
	}, nil
}

type AuthResult struct {
	Token  string `json:"token"`
	Editor Editor `json:"editor"`
}

// Editor is one logged-in session.
type Editor struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Login issues a token for displayName when password matches.
func (s *Service) Login(displayName, password string) (*AuthResult, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	editor := Editor{ID: typeid.NewEditorID(), DisplayName: displayName}
	token, err := s.issueToken(editor)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Editor: editor}, nil
}

func (s *Service) ValidateToken(tokenString string) (*Editor, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return &Editor{ID: c.Subject, DisplayName: c.Name}, nil
}

func (s *Service) issueToken(editor Editor) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name: editor.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   editor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
