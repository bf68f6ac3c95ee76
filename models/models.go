package models

// All lists every table the service migrates at startup.
func All() []any {
	return []any{
		&User{},
		&Conversation{},
		&Message{},
		&MessageVerification{},
		&PaperVerification{},
		&PaperVerdict{},
	}
}
