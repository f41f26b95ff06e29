package auth

import (
	"context"
	"errors"
	"time"

	"github.com/Yash-Ainapure/walstar-task/internal/db"
	"github.com/Yash-Ainapure/walstar-task/internal/users"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	secret []byte
	ttl    time.Duration
	db     db.Querier
}

type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func NewService(secret string, ttlSec int, q db.Querier) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    time.Duration(ttlSec) * time.Second,
		db:     q,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (users.User, TokenResponse, error) {
	if req.Username == "" || req.Password == "" {
		return users.User{}, TokenResponse{}, errors.New("username and password required")
	}
	role := req.Role
	if role != RoleSuperadmin {
		role = RoleDriver
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return users.User{}, TokenResponse{}, err
	}

	user := users.User{
		ID:       uuid.NewString(),
		Username: req.Username,
		Name:     req.Name,
		Phone:    req.Phone,
		Address:  req.Address,
		PhotoURL: req.PhotoURL,
		Role:     role,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, username, password_hash, name, phone, address, photo_url, role)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`, user.ID, user.Username, string(hash), user.Name, user.Phone, user.Address, user.PhotoURL, user.Role)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return users.User{}, TokenResponse{}, err
	}

	tokens, err := s.issueToken(user.ID, user.Role)
	if err != nil {
		return users.User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	if req.Username == "" || req.Password == "" {
		return TokenResponse{}, errors.New("username and password required")
	}

	var id, passwordHash, role string
	row := s.db.QueryRow(ctx, `
		SELECT id, password_hash, role FROM users WHERE username = $1
	`, req.Username)
	if err := row.Scan(&id, &passwordHash, &role); err != nil {
		return TokenResponse{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return TokenResponse{}, ErrInvalidCredentials
	}

	return s.issueToken(id, role)
}

func (s *Service) ValidateToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func (s *Service) issueToken(userID, role string) (TokenResponse, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresIn: int64(s.ttl.Seconds()),
	}, nil
}
