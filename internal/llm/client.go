package llm

import "github.com/tmc/langchaingo/llms"

// GenerationConfig параметры сэмплирования, которые уходят в generationConfig запроса.
type GenerationConfig struct {
	Temperature      float64
	TopP             float64
	TopK             int
	MaxOutputTokens  int
	ResponseMIMEType string
	StopSequences    []string
}

// DefaultGenerationConfig параметры по умолчанию для черновиков писем.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:      1,
		TopP:             0.95,
		TopK:             64,
		MaxOutputTokens:  2048,
		ResponseMIMEType: "text/plain",
	}
}

// merge накладывает ненулевые значения из опций вызова поверх конфигурации клиента.
func (g GenerationConfig) merge(opts llms.CallOptions) GenerationConfig {
	if opts.Temperature != 0 {
		g.Temperature = opts.Temperature
	}
	if opts.TopP != 0 {
		g.TopP = opts.TopP
	}
	if opts.TopK != 0 {
		g.TopK = opts.TopK
	}
	if opts.MaxTokens != 0 {
		g.MaxOutputTokens = opts.MaxTokens
	}
	if len(opts.StopWords) > 0 {
		g.StopSequences = opts.StopWords
	}
	return g
}

func (g GenerationConfig) wire() *generationConfig {
	return &generationConfig{
		Temperature:      g.Temperature,
		TopP:             g.TopP,
		TopK:             g.TopK,
		MaxOutputTokens:  g.MaxOutputTokens,
		ResponseMIMEType: g.ResponseMIMEType,
		StopSequences:    g.StopSequences,
	}
}
