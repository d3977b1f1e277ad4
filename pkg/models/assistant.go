package models

// ChatMessage is one turn of a conversation about a title
type ChatMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// QuizQuestion is a multiple-choice trivia question
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// Valid reports whether the question has four options and an answer among them
func (q *QuizQuestion) Valid() bool {
	return q.Question != "" && len(q.Options) == 4 && q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options)
}
