package draft

import (
	"context"
	"fmt"
	"log/slog"

	"emaildraft/internal/middleware"

	"github.com/tmc/langchaingo/llms"
)

const (
	// ErrorPrefix маркер, с которого начинается текст при неудачной генерации.
	ErrorPrefix = "⚠️ Error generating email: "

	// FileName имя файла для скачивания черновика.
	FileName = "email_draft.txt"
)

// Draft результат одной генерации. При ошибке Text содержит сообщение для пользователя.
type Draft struct {
	Text   string
	Failed bool
}

type Service struct {
	model   llms.Model
	options []llms.CallOption
	logger  *slog.Logger
}

// NewService принимает общий для всех запросов клиент модели.
func NewService(model llms.Model, logger *slog.Logger) *Service {
	return &Service{
		model: model,
		options: []llms.CallOption{
			llms.WithTemperature(1),
			llms.WithTopP(0.95),
			llms.WithTopK(64),
			llms.WithMaxTokens(2048),
		},
		logger: logger,
	}
}

// Generate никогда не возвращает ошибку: сбой модели превращается в текст для показа.
// Проверка полей должна быть выполнена до вызова (см. Validate).
func (s *Service) Generate(ctx context.Context, req Request) Draft {
	text, err := s.generate(ctx, req)
	if err != nil {
		s.logger.Error("email generation failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.RequestIDFromContext(ctx)))
		return Draft{Text: ErrorPrefix + err.Error(), Failed: true}
	}
	return Draft{Text: text}
}

func (s *Service) generate(ctx context.Context, req Request) (text string, err error) {
	// Паника клиента модели тоже превращается в текст ошибки.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("model client panic: %v", rec)
		}
	}()

	prompt, err := Compose(req)
	if err != nil {
		return "", err
	}
	return llms.GenerateFromSinglePrompt(ctx, s.model, prompt, s.options...)
}
