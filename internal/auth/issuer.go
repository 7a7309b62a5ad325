package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"dispatch-service/internal/model"
)

// Issuer signs access tokens and owns the password hashing policy.
type Issuer struct {
	secret     []byte
	ttl        time.Duration
	bcryptCost int
}

func NewIssuer(secret string, ttl time.Duration, bcryptCost int) *Issuer {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, bcryptCost: bcryptCost}
}

func (i *Issuer) Issue(user *model.User, driverID *uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(i.ttl)
	claims := &Claims{
		UserID:       user.ID,
		MinistryID:   user.MinistryID,
		DepartmentID: user.DepartmentID,
		Role:         user.Role,
		DriverID:     driverID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (i *Issuer) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), i.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (i *Issuer) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
