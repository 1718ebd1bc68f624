package mocks

import (
	"context"

	"studyquest-server/internal/messaging"

	"github.com/stretchr/testify/mock"
)

// MockStoryUpdatePublisher is a mock type for the messaging.StoryUpdatePublisher type
type MockStoryUpdatePublisher struct {
	mock.Mock
}

// PublishStoryUpdate provides a mock function with given fields: ctx, update
func (_m *MockStoryUpdatePublisher) PublishStoryUpdate(ctx context.Context, update messaging.StoryUpdate) error {
	ret := _m.Called(ctx, update)
	return ret.Error(0)
}

// NewMockStoryUpdatePublisher creates a new instance of MockStoryUpdatePublisher.
func NewMockStoryUpdatePublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStoryUpdatePublisher {
	m := &MockStoryUpdatePublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ messaging.StoryUpdatePublisher = (*MockStoryUpdatePublisher)(nil)
