package skills_test

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// mockRobot records robot calls through testify/mock.
type mockRobot struct {
	mock.Mock
}

func (m *mockRobot) Speak(ctx context.Context, text string) error {
	return m.Called(text).Error(0)
}

func (m *mockRobot) StartListening(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *mockRobot) StopListening(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *mockRobot) TiltHead(ctx context.Context, degrees int) error {
	return m.Called(degrees).Error(0)
}

func (m *mockRobot) GoTo(ctx context.Context, location string) error {
	return m.Called(location).Error(0)
}

func (m *mockRobot) BeginFollow(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *mockRobot) StopMovement(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *mockRobot) Locations(ctx context.Context) ([]string, error) {
	args := m.Called()
	locations, _ := args.Get(0).([]string)
	return locations, args.Error(1)
}

func (m *mockRobot) SaveLocation(ctx context.Context, name string) error {
	return m.Called(name).Error(0)
}

func (m *mockRobot) DeleteLocation(ctx context.Context, name string) error {
	return m.Called(name).Error(0)
}

func (m *mockRobot) OpenPage(ctx context.Context, page string) error {
	return m.Called(page).Error(0)
}
