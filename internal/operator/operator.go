package operator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carom/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("operator not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// GetOperator retrieves an operator account by username
func GetOperator(ctx context.Context, db *sqlx.DB, username string) (*models.Operator, error) {
	var op models.Operator
	err := db.GetContext(ctx, &op, `SELECT username, display_name, password_hash, created_at, updated_at FROM operators WHERE username=$1`, username)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// HashPassword returns the bcrypt hash stored for an operator password
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword checks if the provided password matches the stored hash
func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

// CreateOperator creates or updates an operator account (used for seeding)
func CreateOperator(ctx context.Context, db *sqlx.DB, username, displayName, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO operators (username, display_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (username) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			password_hash = EXCLUDED.password_hash,
			updated_at = NOW()
	`, username, displayName, hashed)
	if err != nil {
		return fmt.Errorf("upsert operator %s: %w", username, err)
	}
	return nil
}

// Authenticate validates a username + password combination
func Authenticate(ctx context.Context, db *sqlx.DB, username, password string) (*models.Operator, error) {
	op, err := GetOperator(ctx, db, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[OPERATOR] No operator account for: %s", username)
			return nil, ErrNotFound
		}
		log.Printf("[OPERATOR] Database error: %v", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyPassword(op.PasswordHash, password) {
		log.Printf("[OPERATOR] Password verification failed for: %s", username)
		return nil, ErrInvalidCredentials
	}

	return op, nil
}
