package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockAPIClient is a mock implementation of client.APIClient for testing.
type MockAPIClient struct {
	mock.Mock
}

func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) Call(ctx context.Context, method, params string) (string, error) {
	args := m.Called(ctx, method, params)
	return args.String(0), args.Error(1)
}

func (m *MockAPIClient) WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	notificationType string,
) (string, error) {
	args := m.Called(ctx, timeout, notificationType)
	return args.String(0), args.Error(1)
}

// SetupResult makes method return result marshalled as JSON for any params.
func (m *MockAPIClient) SetupResult(method string, result any) *mock.Call {
	data, _ := json.Marshal(result)
	return m.On("Call", mock.Anything, method, mock.Anything).Return(string(data), nil)
}

func (m *MockAPIClient) SetupError(method string, err error) *mock.Call {
	return m.On("Call", mock.Anything, method, mock.Anything).Return("", err)
}

// SetupNotification makes WaitNotification return payload marshalled as
// JSON for the given notification method.
func (m *MockAPIClient) SetupNotification(method string, payload any) *mock.Call {
	data, _ := json.Marshal(payload)
	return m.On("WaitNotification", mock.Anything, mock.Anything, method).Return(string(data), nil)
}
