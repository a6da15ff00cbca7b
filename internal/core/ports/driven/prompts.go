package driven

// Prompt names understood by PromptStore.
const (
	PromptAnswerSystem = "answer_system"
)

// PromptStore loads user-customisable LLM prompts.
type PromptStore interface {
	// Load returns the prompt with the given name.
	Load(name string) (string, error)
}
