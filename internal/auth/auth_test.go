package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"dispatch-service/internal/model"
)

func testUser() *model.User {
	departmentID := uuid.New()
	return &model.User{
		ID:           uuid.New(),
		FullName:     "A. Tester",
		Email:        "tester@gov.example",
		Role:         model.UserRoleSupervisor,
		MinistryID:   uuid.New(),
		DepartmentID: &departmentID,
		Active:       true,
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 4)

	hash, err := issuer.HashPassword("s3cure-pass")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cure-pass", hash)

	assert.True(t, issuer.CheckPassword("s3cure-pass", hash))
	assert.False(t, issuer.CheckPassword("wrong", hash))
}

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 4)
	user := testUser()
	driverID := uuid.New()

	token, expiresAt, err := issuer.Issue(user, &driverID)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := NewParser("secret").Parse(token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.MinistryID, claims.MinistryID)
	assert.Equal(t, user.Role, claims.Role)
	assert.NotNil(t, claims.DepartmentID)
	assert.Equal(t, *user.DepartmentID, *claims.DepartmentID)
	assert.NotNil(t, claims.DriverID)
	assert.Equal(t, driverID, *claims.DriverID)
}

func TestParse_WrongSecret(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 4)
	token, _, err := issuer.Issue(testUser(), nil)
	assert.NoError(t, err)

	_, err = NewParser("other-secret").Parse(token)
	assert.Error(t, err)
}

func TestParse_ExpiredToken(t *testing.T) {
	issuer := NewIssuer("secret", -time.Minute, 4)
	token, _, err := issuer.Issue(testUser(), nil)
	assert.NoError(t, err)

	_, err = NewParser("secret").Parse(token)
	assert.Error(t, err)
}

func TestParse_Garbage(t *testing.T) {
	_, err := NewParser("secret").Parse("not.a.token")
	assert.Error(t, err)
}

func TestClaimsPrincipal(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 4)
	user := testUser()

	token, _, err := issuer.Issue(user, nil)
	assert.NoError(t, err)

	claims, err := NewParser("secret").Parse(token)
	assert.NoError(t, err)

	principal := claims.Principal()
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, user.Role, principal.Role)
	assert.True(t, principal.IsSupervisor())
	assert.Nil(t, principal.DriverID)
}
