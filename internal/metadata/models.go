package metadata

// Tier says which job a model is meant for.
type Tier string

const (
	TierTranslation Tier = "translation"
	TierExtraction  Tier = "extraction"
)

type Model struct {
	ID       string
	Label    string
	Provider string
	Tier     Tier
}

var Models = []Model{
	{ID: "gemini-2.5-pro", Label: "Gemini 2.5 Pro", Provider: "gemini", Tier: TierTranslation},
	{ID: "gemini-2.5-flash", Label: "Gemini 2.5 Flash", Provider: "gemini", Tier: TierTranslation},
	{ID: "gemini-2.5-flash-lite", Label: "Gemini 2.5 Flash-Lite", Provider: "gemini", Tier: TierExtraction},
	{ID: "gemini-2.0-flash", Label: "Gemini 2.0 Flash", Provider: "gemini", Tier: TierExtraction},
	{ID: "gpt-4.1", Label: "GPT-4.1", Provider: "openai", Tier: TierTranslation},
	{ID: "gpt-4.1-mini", Label: "GPT-4.1 mini", Provider: "openai", Tier: TierExtraction},
}

const (
	DefaultTranslationModel = "gemini-2.5-flash"
	DefaultExtractionModel  = "gemini-2.5-flash-lite"

	DefaultOpenAITranslationModel = "gpt-4.1"
	DefaultOpenAIExtractionModel  = "gpt-4.1-mini"
)

// ModelsFor lists the known models of a provider.
func ModelsFor(provider string) []Model {
	var out []Model
	for _, m := range Models {
		if m.Provider == provider {
			out = append(out, m)
		}
	}
	return out
}

// Lookup finds a known model. Unknown ids are allowed everywhere; callers
// only use this for display and warnings.
func Lookup(id string) (Model, bool) {
	for _, m := range Models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{ID: id, Label: id}, false
}

// Defaults returns the translation and extraction models of a provider.
func Defaults(provider string) (translation, extraction string) {
	if provider == "openai" {
		return DefaultOpenAITranslationModel, DefaultOpenAIExtractionModel
	}
	return DefaultTranslationModel, DefaultExtractionModel
}
