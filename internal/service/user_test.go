package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
	"github.com/4sizn/animal-zoom-sub000/internal/repository"
	"github.com/4sizn/animal-zoom-sub000/internal/repository/mocks"
	"github.com/4sizn/animal-zoom-sub000/internal/service"
)

func TestUserService_UpdateAvatar(t *testing.T) {
	users := mocks.NewUserRepository(t)
	svc := service.NewUserService(users)
	users.On("UpdateAvatar", mock.Anything, uint(1), `{"animal":"fox"}`).Return(nil).Once()

	err := svc.UpdateAvatar(context.Background(), 1, json.RawMessage(`{"animal":"fox"}`))
	assert.NoError(t, err)
}

func TestUserService_UpdateAvatar_InvalidPayload(t *testing.T) {
	svc := service.NewUserService(mocks.NewUserRepository(t))
	err := svc.UpdateAvatar(context.Background(), 1, json.RawMessage(`[]`))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestUserService_UpdateAvatar_UnknownUser(t *testing.T) {
	users := mocks.NewUserRepository(t)
	svc := service.NewUserService(users)
	users.On("UpdateAvatar", mock.Anything, uint(9), mock.Anything).Return(repository.ErrUserNotFound).Once()

	err := svc.UpdateAvatar(context.Background(), 9, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUserService_Profile(t *testing.T) {
	users := mocks.NewUserRepository(t)
	svc := service.NewUserService(users)
	users.On("FindByID", mock.Anything, uint(1)).Return(&domain.User{ID: 1, Username: "alice", Password: "hash"}, nil).Once()

	user, err := svc.Profile(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, user.Password)
}
