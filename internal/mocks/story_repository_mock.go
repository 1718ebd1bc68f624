package mocks

import (
	"context"

	"studyquest-server/internal/models"
	"studyquest-server/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockStoryRepository is a mock type for the repository.StoryRepository type
type MockStoryRepository struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, userID
func (_m *MockStoryRepository) Get(ctx context.Context, userID string) (*models.StoryState, error) {
	ret := _m.Called(ctx, userID)

	var r0 *models.StoryState
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.StoryState)
	}
	return r0, ret.Error(1)
}

// Save provides a mock function with given fields: ctx, userID, state
func (_m *MockStoryRepository) Save(ctx context.Context, userID string, state *models.StoryState) error {
	ret := _m.Called(ctx, userID, state)
	return ret.Error(0)
}

// Delete provides a mock function with given fields: ctx, userID
func (_m *MockStoryRepository) Delete(ctx context.Context, userID string) error {
	ret := _m.Called(ctx, userID)
	return ret.Error(0)
}

// NewMockStoryRepository creates a new instance of MockStoryRepository.
func NewMockStoryRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStoryRepository {
	m := &MockStoryRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ repository.StoryRepository = (*MockStoryRepository)(nil)
