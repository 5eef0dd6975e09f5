package app

import (
	"context"
	"strings"

	"ai_tutor/internal/domain"
)

const defaultDifficulty = "medium"

// LearnRequest asks for an explanation, quiz or practice problem.
// Topic wins over Question when both are set.
type LearnRequest struct {
	Topic      string
	Question   string
	Mode       string
	Difficulty string
	SessionID  string
}

// LearnReply is a learning response plus the options that produced it.
type LearnReply struct {
	domain.Reply
	Mode       string
	Difficulty string
	Subject    string
}

// Learn builds the prompt for the requested mode and routes it through chat,
// preferring the document when one is loaded.
func (a *App) Learn(ctx context.Context, req LearnRequest) LearnReply {
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	switch mode {
	case ModeQuiz, ModePractice:
	default:
		mode = ModeExplain
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = defaultDifficulty
	}
	subject := req.Topic
	if subject == "" {
		subject = req.Question
	}

	prompt := buildLearningPrompt(mode, difficulty, subject)
	useDocument := true
	reply := a.Chat(ctx, prompt, req.SessionID, &useDocument)

	return LearnReply{
		Reply:      reply,
		Mode:       mode,
		Difficulty: difficulty,
		Subject:    subject,
	}
}

// Ask is Chat with the document preferred unless useDocument says otherwise.
func (a *App) Ask(ctx context.Context, message, sessionID string, useDocument *bool) domain.Reply {
	if useDocument == nil {
		prefer := true
		useDocument = &prefer
	}
	return a.Chat(ctx, message, sessionID, useDocument)
}
