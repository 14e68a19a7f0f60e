package quizsession

// Config holds the presentation options of a session.
type Config struct {
	ShuffleQuestions bool
	ShuffleOptions   bool
	MaxQuestions     *int // nil = every visible question
}

// DefaultConfig shuffles questions and options and keeps every visible question.
func DefaultConfig() Config {
	return Config{
		ShuffleQuestions: true,
		ShuffleOptions:   true,
		MaxQuestions:     nil,
	}
}
