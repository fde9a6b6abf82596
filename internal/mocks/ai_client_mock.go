package mocks

import (
	"context"

	"forge-server/internal/ai"
	"forge-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockAIClient is a mock type for the ai.Client type
type MockAIClient struct {
	mock.Mock
}

func (_m *MockAIClient) GenerateSpec(ctx context.Context, title string, genre models.Genre, prompt string, attachments []models.Attachment) (*models.Specification, ai.UsageInfo, error) {
	ret := _m.Called(ctx, title, genre, prompt, attachments)

	var r0 *models.Specification
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Specification)
	}
	return r0, ret.Get(1).(ai.UsageInfo), ret.Error(2)
}

func (_m *MockAIClient) GenerateProjectFiles(ctx context.Context, title string, genre models.Genre, spec *models.Specification, attachments []models.Attachment) (*ai.ProjectFiles, ai.UsageInfo, error) {
	ret := _m.Called(ctx, title, genre, spec, attachments)

	var r0 *ai.ProjectFiles
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ai.ProjectFiles)
	}
	return r0, ret.Get(1).(ai.UsageInfo), ret.Error(2)
}

func (_m *MockAIClient) GenerateThumbnail(ctx context.Context, prompt string) (string, error) {
	ret := _m.Called(ctx, prompt)
	return ret.String(0), ret.Error(1)
}

func (_m *MockAIClient) CopilotMessage(ctx context.Context, req ai.CopilotRequest) (*models.CopilotReply, ai.UsageInfo, error) {
	ret := _m.Called(ctx, req)

	var r0 *models.CopilotReply
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.CopilotReply)
	}
	return r0, ret.Get(1).(ai.UsageInfo), ret.Error(2)
}

// NewMockAIClient creates a new instance of MockAIClient and registers the
// testing interface on the mock.
func NewMockAIClient(t interface {
	mock.TestingT
	Helper()
}) *MockAIClient {
	m := &MockAIClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ ai.Client = (*MockAIClient)(nil)
