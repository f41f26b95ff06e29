package users

import (
	"context"
	"errors"

	"github.com/Yash-Ainapure/walstar-task/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrNotFound = errors.New("user not found")

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

const userColumns = `id, username, COALESCE(name,''), COALESCE(phone,''), COALESCE(address,''), COALESCE(photo_url,''), role, created_at, updated_at`

func (s *Service) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Phone, &u.Address, &u.PhotoURL, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Phone, &u.Address, &u.PhotoURL, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// IDByUsername resolves a username to its user id, used by the sync
// endpoint when a superadmin acts on a driver's behalf.
func (s *Service) IDByUsername(ctx context.Context, username string) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE username=$1`, username).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (User, error) {
	if req.Username == "" || req.Password == "" {
		return User{}, errors.New("username and password required")
	}
	role := req.Role
	if role != "superadmin" {
		role = "driver"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	u := User{
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
	`, u.ID, u.Username, string(hash), u.Name, u.Phone, u.Address, u.PhotoURL, u.Role)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if req.Username != "" {
		u.Username = req.Username
	}
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Phone != "" {
		u.Phone = req.Phone
	}
	if req.Address != "" {
		u.Address = req.Address
	}
	if req.PhotoURL != "" {
		u.PhotoURL = req.PhotoURL
	}
	if req.Role == "driver" || req.Role == "superadmin" {
		u.Role = req.Role
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		if _, err := s.db.Exec(ctx, `UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1`, id, string(hash)); err != nil {
			return User{}, err
		}
	}

	_, err = s.db.Exec(ctx, `
		UPDATE users
		SET username=$2, name=$3, phone=$4, address=$5, photo_url=$6, role=$7, updated_at=now()
		WHERE id=$1
	`, u.ID, u.Username, u.Name, u.Phone, u.Address, u.PhotoURL, u.Role)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	return err
}
