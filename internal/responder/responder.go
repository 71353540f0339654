package responder

import (
	"context"
	"fmt"
	"strings"

	"webchat/internal/chat"
	"webchat/internal/extract"
	"webchat/internal/provider"
	"webchat/internal/tokens"
)

const maxHistoryTurns = 10

// Fixed user-facing replies. The failure texts mirror the behavior users
// see from the Gemini backend, so they name it explicitly.
const (
	emptyReplyMessage = "I'm sorry, I couldn't generate a response. Please try rephrasing your question."
	authMessage       = "Error: Invalid Google Gemini API key. Please check your API key and try again."
	quotaMessage      = "Error: API quota exceeded. Please check your Google Cloud account."
	safetyMessage     = "Error: Content was blocked by safety filters. Please try rephrasing your question."
)

const promptTemplate = `You are a helpful assistant that can answer questions about a specific website.
Here is the website content for context:

%s

Please answer user questions based on this website content. If the question cannot be answered
from the website content, politely let the user know and provide general helpful information if possible.

User Question: %s

Please provide a helpful response:`

// FailureKind is the closed set of model-call failure categories.
type FailureKind int

const (
	FailureGeneric FailureKind = iota
	FailureAuth
	FailureQuota
	FailureSafety
)

// Responder holds one website summary as static context and answers user
// messages against it through the model client.
type Responder struct {
	client  provider.Client
	content *extract.PageContent
	context string
	history *chat.History
}

func New(client provider.Client) *Responder {
	return &Responder{
		client:  client,
		history: chat.NewHistory(maxHistoryTurns),
	}
}

// SetContext stores content and rebuilds the context block. The previous
// context is replaced wholesale; conversation history is left untouched.
func (r *Responder) SetContext(content *extract.PageContent) {
	r.content = content
	r.context = buildContextBlock(content)
}

// Content returns the currently stored page content, nil before the first
// SetContext.
func (r *Responder) Content() *extract.PageContent {
	return r.content
}

// ContextTokens estimates the token footprint of the context block.
func (r *Responder) ContextTokens() int {
	return tokens.Default().CountText(r.context)
}

// History returns the retained turns, oldest first. The sequence is
// maintained for inspection only and is never fed back into prompts;
// every model call carries the website context plus the new question.
func (r *Responder) History() []chat.Turn {
	return r.history.Turns()
}

// Chat answers one user message. The return value is always user-facing
// text: either the model's reply or one of the fixed failure messages.
// No failure is retried.
func (r *Responder) Chat(ctx context.Context, message string) string {
	reply, err := r.client.Generate(ctx, r.buildPrompt(message))
	if err != nil {
		switch classifyFailure(err) {
		case FailureAuth:
			return authMessage
		case FailureQuota:
			return quotaMessage
		case FailureSafety:
			return safetyMessage
		default:
			return fmt.Sprintf("Error: An unexpected error occurred - %v", err)
		}
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return emptyReplyMessage
	}

	r.history.Append(chat.Turn{User: message, Bot: reply})
	return reply
}

func (r *Responder) buildPrompt(message string) string {
	return fmt.Sprintf(promptTemplate, r.context, message)
}

// buildContextBlock assembles the newline-joined context in fixed order:
// title, URL, meta description, up to 10 headings, the main content, and
// up to 5 links.
func buildContextBlock(content *extract.PageContent) string {
	if content == nil {
		return ""
	}

	parts := []string{
		"Website Title: " + content.Title,
		"URL: " + content.URL,
		"Meta Description: " + content.MetaDescription,
	}

	if len(content.Headings) > 0 {
		parts = append(parts, "Key Headings:")
		headings := content.Headings
		if len(headings) > 10 {
			headings = headings[:10]
		}
		parts = append(parts, headings...)
	}

	if content.MainContent != "" {
		parts = append(parts, "Main Content: "+content.MainContent)
	}

	if len(content.Links) > 0 {
		parts = append(parts, "Important Links:")
		links := content.Links
		if len(links) > 5 {
			links = links[:5]
		}
		parts = append(parts, links...)
	}

	return strings.Join(parts, "\n")
}

// classifyFailure maps a model-call error onto a failure kind by
// case-insensitive substring inspection, in fixed priority order.
func classifyFailure(err error) FailureKind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "authentication"):
		return FailureAuth
	case strings.Contains(msg, "quota") || strings.Contains(msg, "limit"):
		return FailureQuota
	case strings.Contains(msg, "safety"):
		return FailureSafety
	default:
		return FailureGeneric
	}
}
