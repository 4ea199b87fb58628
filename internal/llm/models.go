package llm

// KnownModels модели Gemini, с которыми проверялись черновики писем.
var KnownModels = []ModelInfo{
	{
		ID:          "gemini-2.5-flash",
		Name:        "Gemini 2.5 Flash",
		Description: "Быстрая модель, используется по умолчанию",
	},
	{
		ID:          "gemini-2.5-flash-lite",
		Name:        "Gemini 2.5 Flash-Lite",
		Description: "Самая дешёвая и быстрая",
	},
	{
		ID:          "gemini-2.5-pro",
		Name:        "Gemini 2.5 Pro",
		Description: "Медленнее, но аккуратнее с формулировками",
	},
}

type ModelInfo struct {
	ID          string
	Name        string
	Description string
}

// GetModelByID возвращает описание модели или nil, если она неизвестна.
func GetModelByID(modelID string) *ModelInfo {
	for _, m := range KnownModels {
		if m.ID == modelID {
			return &m
		}
	}
	return nil
}

func IsKnownModel(modelID string) bool {
	return GetModelByID(modelID) != nil
}
