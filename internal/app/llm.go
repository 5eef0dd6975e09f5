package app

import (
	"fmt"
	"strings"
)

// Learning modes accepted by Learn.
const (
	ModeExplain  = "explain"
	ModeQuiz     = "quiz"
	ModePractice = "practice"
)

// buildExcerpts numbers passages and names the document each came from.
func buildExcerpts(results []SearchResult) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf("Excerpt %d (from %s):\n%s", i+1, r.Source, strings.TrimSpace(r.Content)))
	}
	return strings.Join(blocks, "\n\n")
}

// buildTeachingPrompt asks for an explanation aimed at a student.
func buildTeachingPrompt(query string, results []SearchResult) string {
	var buf strings.Builder

	buf.WriteString("You are an AI tutor helping a student learn. The student asked: \"")
	buf.WriteString(query)
	buf.WriteString("\"\n\nRelevant information from the documents:\n")
	buf.WriteString(buildExcerpts(results))
	buf.WriteString("\n\nProvide a clear, educational response that:\n")
	buf.WriteString("1. Directly answers the question using information from the documents\n")
	buf.WriteString("2. Explains concepts clearly and step-by-step\n")
	buf.WriteString("3. Uses examples from the documents when helpful\n")
	buf.WriteString("4. Encourages learning and understanding\n")
	buf.WriteString("5. Cites which parts of the document you're referencing\n\n")
	buf.WriteString("Make your response educational, clear, and helpful for learning.")

	return buf.String()
}

// buildPlainPrompt asks for a direct answer from the excerpts.
func buildPlainPrompt(query string, results []SearchResult) string {
	var buf strings.Builder

	buf.WriteString("Based on the following document excerpts, answer this question: ")
	buf.WriteString(query)
	buf.WriteString("\n\nDocument excerpts:\n")
	buf.WriteString(buildExcerpts(results))
	buf.WriteString("\n\nAnswer:")

	return buf.String()
}

func buildSummaryPrompt(results []SearchResult) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Content)
	}

	var buf strings.Builder
	buf.WriteString("Based on the following document excerpts, provide a concise summary of the main topics and key concepts:\n\n")
	buf.WriteString(strings.Join(texts, "\n\n"))
	buf.WriteString("\n\nSummary:")
	return buf.String()
}

// buildLearningPrompt renders the request for one learning mode. Unknown
// modes fall back to an explanation.
func buildLearningPrompt(mode, difficulty, subject string) string {
	var buf strings.Builder

	switch mode {
	case ModeQuiz:
		fmt.Fprintf(&buf, "Generate a %s difficulty quiz question about: %s\n\n", difficulty, subject)
		buf.WriteString("Format:\n")
		buf.WriteString("1. Question\n")
		buf.WriteString("2. Multiple choice options (A, B, C, D)\n")
		buf.WriteString("3. Correct answer\n")
		buf.WriteString("4. Explanation\n\n")
		buf.WriteString("Make it educational and clear.")
	case ModePractice:
		fmt.Fprintf(&buf, "Create a %s difficulty practice problem about: %s\n\n", difficulty, subject)
		buf.WriteString("Include:\n")
		buf.WriteString("1. Problem statement\n")
		buf.WriteString("2. Step-by-step solution\n")
		buf.WriteString("3. Key concepts explained\n")
		buf.WriteString("4. Similar practice suggestions")
	default:
		fmt.Fprintf(&buf, "Provide a detailed, educational explanation about: %s\n\n", subject)
		buf.WriteString("Make it:\n")
		buf.WriteString("- Clear and easy to understand\n")
		buf.WriteString("- Include examples if helpful\n")
		buf.WriteString("- Break down complex concepts\n")
		buf.WriteString("- Use analogies when appropriate\n")
		fmt.Fprintf(&buf, "- Suitable for %s level learners", difficulty)
	}

	return buf.String()
}
