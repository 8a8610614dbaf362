package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Mock TextTransformer
type TextTransformer struct {
	mock.Mock
}

func (m *TextTransformer) Transform(ctx context.Context, content, directive string) (string, error) {
	args := m.Called(ctx, content, directive)
	return args.String(0), args.Error(1)
}

// Mock ImageGenerator
type ImageGenerator struct {
	mock.Mock
}

func (m *ImageGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	args := m.Called(ctx, prompt)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// Mock Pacer
type Pacer struct {
	mock.Mock
}

func (m *Pacer) Pause(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
