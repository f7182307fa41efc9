package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Secret = "test-secret"
	return cfg
}

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndVerify(t *testing.T) {
	iss, err := NewIssuer(testConfig(), clockAt(now))
	require.NoError(t, err)
	ver, err := NewVerifier(testConfig(), clockAt(now.Add(time.Minute)))
	require.NoError(t, err)

	token, err := iss.Issue(Principal{ID: "t-1", Role: RoleTeacher}, time.Hour)
	require.NoError(t, err)

	p, err := ver.Verify("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: "t-1", Role: RoleTeacher}, p)
}

func TestVerify_Rejects(t *testing.T) {
	iss, err := NewIssuer(testConfig(), clockAt(now))
	require.NoError(t, err)
	token, err := iss.Issue(Principal{ID: "l-1", Role: RoleLearner}, time.Hour)
	require.NoError(t, err)

	expired, err := NewVerifier(testConfig(), clockAt(now.Add(2*time.Hour)))
	require.NoError(t, err)
	_, err = expired.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	otherCfg := testConfig()
	otherCfg.Secret = "another-secret"
	wrongKey, err := NewVerifier(otherCfg, clockAt(now))
	require.NoError(t, err)
	_, err = wrongKey.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	otherCfg = testConfig()
	otherCfg.Issuer = "someone-else"
	wrongIssuer, err := NewVerifier(otherCfg, clockAt(now))
	require.NoError(t, err)
	_, err = wrongIssuer.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	ok, err := NewVerifier(testConfig(), clockAt(now))
	require.NoError(t, err)
	_, err = ok.Verify("")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerify_RejectsUnknownRole(t *testing.T) {
	c := claims{
		Role: "janitor",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "x",
			Issuer:    "skilltree",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	ver, err := NewVerifier(testConfig(), clockAt(now))
	require.NoError(t, err)
	_, err = ver.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := NewVerifier(DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	teacher := Principal{ID: "t", Role: RoleTeacher}
	learner := Principal{ID: "l", Role: RoleLearner}

	assert.NoError(t, RequireRole(teacher, "calibrate", RoleTeacher, RoleAdmin))

	err := RequireRole(learner, "calibrate", RoleTeacher, RoleAdmin)
	var fe *ForbiddenError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "calibrate", fe.Action)
}

func TestRequireSelfOrStaff(t *testing.T) {
	assert.NoError(t, RequireSelfOrStaff(Principal{ID: "l", Role: RoleLearner}, "l", "record"))
	assert.Error(t, RequireSelfOrStaff(Principal{ID: "l", Role: RoleLearner}, "other", "record"))
	assert.NoError(t, RequireSelfOrStaff(Principal{ID: "t", Role: RoleTeacher}, "other", "record"))
}
