package operator

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// RoleController is the only role a token can carry today.
const RoleController = "controller"

var ErrInvalidToken = errors.New("invalid token")

// ControllerClaims is the decoded content of a controller token.
type ControllerClaims struct {
	Operator  string
	Role      string
	ExpiresAt time.Time
}

// IssueControllerToken signs a token that lets operator drive a table's cue.
func IssueControllerToken(secret, operator string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	claims := jwt.MapClaims{
		"operator": operator,
		"role":     RoleController,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseControllerToken verifies a token and returns its claims.
func ParseControllerToken(secret, token string) (*ControllerClaims, error) {
	if secret == "" || token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	op, _ := claims["operator"].(string)
	role, _ := claims["role"].(string)
	if op == "" || role != RoleController {
		return nil, ErrInvalidToken
	}
	out := &ControllerClaims{Operator: op, Role: role}
	if expf, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(expf), 0)
	}
	return out, nil
}
