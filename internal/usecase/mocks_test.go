package usecase_test

import (
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) Create(ctx domain.Context, s domain.Session) (string, error) {
	args := m.Called(ctx, s)
	return args.String(0), args.Error(1)
}

func (m *mockSessionRepo) Get(ctx domain.Context, id string) (domain.Session, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *mockSessionRepo) UpdateStatus(ctx domain.Context, id string, status domain.SessionStatus, errMsg *string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *mockSessionRepo) Complete(ctx domain.Context, id string, tr domain.Transcript, a domain.Analysis, mt domain.Metrics) error {
	args := m.Called(ctx, id, tr, a, mt)
	return args.Error(0)
}

func (m *mockSessionRepo) List(ctx domain.Context, f domain.SessionFilter) ([]domain.Session, error) {
	args := m.Called(ctx, f)
	if v := args.Get(0); v != nil {
		return v.([]domain.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockQuestionRepo struct{ mock.Mock }

func (m *mockQuestionRepo) Create(ctx domain.Context, q domain.Question) (string, error) {
	args := m.Called(ctx, q)
	return args.String(0), args.Error(1)
}

func (m *mockQuestionRepo) Get(ctx domain.Context, id string) (domain.Question, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Question), args.Error(1)
}

type mockQueue struct{ mock.Mock }

func (m *mockQueue) EnqueueEvaluate(ctx domain.Context, payload domain.EvaluateTaskPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

type mockTranscriber struct{ mock.Mock }

func (m *mockTranscriber) Transcribe(ctx domain.Context, audioURL string) (domain.Transcript, error) {
	args := m.Called(ctx, audioURL)
	return args.Get(0).(domain.Transcript), args.Error(1)
}

func (m *mockTranscriber) UploadAudio(ctx domain.Context, r io.Reader) (string, error) {
	args := m.Called(ctx, r)
	return args.String(0), args.Error(1)
}

type mockAIClient struct{ mock.Mock }

func (m *mockAIClient) Chat(ctx domain.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, temperature, maxTokens)
	return args.String(0), args.Error(1)
}

type mockSynthesizer struct{ mock.Mock }

func (m *mockSynthesizer) Synthesize(ctx domain.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) GenerateContent(ctx domain.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type mockAudioCache struct{ mock.Mock }

func (m *mockAudioCache) Get(ctx domain.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAudioCache) Set(ctx domain.Context, key string, audio []byte) error {
	args := m.Called(ctx, key, audio)
	return args.Error(0)
}
