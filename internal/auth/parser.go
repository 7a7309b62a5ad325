package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"dispatch-service/internal/model"
)

type Claims struct {
	UserID       uuid.UUID      `json:"sub"`
	MinistryID   uuid.UUID      `json:"ministry_id"`
	DepartmentID *uuid.UUID     `json:"department_id,omitempty"`
	Role         model.UserRole `json:"role"`
	DriverID     *uuid.UUID     `json:"driver_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() model.Principal {
	return model.Principal{
		UserID:       c.UserID,
		MinistryID:   c.MinistryID,
		DepartmentID: c.DepartmentID,
		Role:         c.Role,
		DriverID:     c.DriverID,
	}
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}
