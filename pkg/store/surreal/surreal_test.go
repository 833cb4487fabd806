package surreal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/surrealdb/surrealdb.go/pkg/connection"

	"github.com/foliohq/folio/pkg/store"
)

func TestHandleNotFound(t *testing.T) {
	assert.NoError(t, handleNotFound(nil))
	assert.NoError(t, handleNotFound(errors.New("Expected a single or multiple results but got 0")))
	assert.NoError(t, handleNotFound(errors.New("cannot unmarshal array into Go value of type models.Profile")))

	other := errors.New("connection reset")
	assert.Equal(t, other, handleNotFound(other))
}

func TestAlreadyExists(t *testing.T) {
	assert.True(t, alreadyExists(errors.New("Database record `profile:main` already exists")))
	assert.False(t, alreadyExists(errors.New("permission denied")))
	assert.False(t, alreadyExists(nil))
}

func TestWrapErrQuota(t *testing.T) {
	cases := []error{
		errors.New("monthly read quota exceeded"),
		errors.New("Rate limit exceeded for this namespace"),
		&connection.RPCError{Code: -32000, Message: "Too many requests"},
	}
	for _, err := range cases {
		wrapped := wrapErr("list projects", err)
		assert.ErrorIs(t, wrapped, store.ErrResourceExhausted, "%v", err)
	}
}

func TestSourceConstructors(t *testing.T) {
	s := &SurrealStore{}
	assert.NotNil(t, s.ProjectsSource())
	assert.NotNil(t, s.MessagesSource())
	assert.NotNil(t, s.ClientsSource())
	assert.NotNil(t, s.ProfileSource())
	assert.NotNil(t, s.ResumeSource())
	assert.NotNil(t, s.AnalyticsSource())
}

func TestWrapErrPassthrough(t *testing.T) {
	assert.NoError(t, wrapErr("get profile", nil))

	err := wrapErr("get profile", errors.New("connection refused"))
	assert.NotErrorIs(t, err, store.ErrResourceExhausted)
	assert.Contains(t, err.Error(), "get profile")
}
