// Package assistant answers citizen questions about filing and tracking
// complaints, and rewrites complaint drafts. It never fails: without the AI
// backend it falls back to canned guidance or the original text.
package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"grievance-intake-go/internal/llm"
	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/types"
)

const systemPrompt = `You are a helpful assistant for a citizen grievance redressal platform. Your role is to help citizens with complaints.

Rules:
- If the user has already written a complaint, base your guidance on what they wrote and never ask for details already present.
- If they ask about a category, suggest the most appropriate one for their complaint.
- Keep responses short: 2-3 sentences or at most 4 bullet points using "•".
- Reply in the user's preferred language (Hindi, Marathi or English).`

var (
	areaCodeInText = regexp.MustCompile(`\d{6}`)
	digitsInText   = regexp.MustCompile(`\d+`)
)

// Context is what the citizen's screen knows about the complaint in progress.
type Context struct {
	ComplaintText string         `json:"complaintText"`
	Language      types.Language `json:"language"`
	Status        types.Status   `json:"status"`
	Category      types.Category `json:"category"`
}

type Assistant struct {
	llm llm.Completer
	log *logger.Logger
}

// New accepts a nil completer; every answer then comes from the fallbacks.
func New(c llm.Completer, log *logger.Logger) *Assistant {
	return &Assistant{llm: c, log: log.WithComponent("assistant")}
}

func (a *Assistant) Assist(ctx context.Context, query string, cc Context) string {
	if a.llm == nil {
		return Fallback(query, cc)
	}

	prompt := query
	if strings.TrimSpace(cc.ComplaintText) != "" {
		prompt = fmt.Sprintf("User's complaint: %q\n\nUser's question: %s\n\n"+
			"Answer based on what they have already written. If relevant, suggest the most appropriate category from: %s.",
			cc.ComplaintText, query, categoryList())
	}
	if cc.Language != "" {
		prompt += "\n\nUser's preferred language: " + cc.Language.Name()
	}
	if cc.Status != "" {
		prompt += "\n\nCurrent complaint status: " + string(cc.Status)
	}
	if cc.Category != "" {
		prompt += "\n\nComplaint category: " + string(cc.Category)
	}

	out, err := a.llm.Complete(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}, llm.Options{Temperature: 0.7, MaxTokens: 150})
	if err != nil {
		a.log.WithError(err).Warn("assistant falling back to canned response")
		return Fallback(query, cc)
	}
	return out
}

// Improve rewrites a complaint draft to be clearer, in its own language.
// Any failure returns the draft unchanged.
func (a *Assistant) Improve(ctx context.Context, text string, lang types.Language) string {
	if a.llm == nil || strings.TrimSpace(text) == "" {
		return text
	}
	if !lang.IsValid() {
		lang = types.LanguageEnglish
	}
	name := lang.Name()
	prompt := fmt.Sprintf(`You are helping a citizen improve their complaint for a government grievance system.
The complaint is in %s.

Original complaint: %q

Improve this complaint to be clear and specific, include relevant details, stay professional but accessible, and be actionable for authorities.
Provide only the improved version in %s. Keep it concise.`, name, text, name)

	out, err := a.llm.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Options{Temperature: 0.7, MaxTokens: 500})
	if err != nil || strings.TrimSpace(out) == "" {
		a.log.WithError(err).Warn("improve failed, returning original text")
		return text
	}
	return strings.TrimSpace(out)
}

// Fallback picks a canned answer by keywords in the query.
func Fallback(query string, cc Context) string {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "write") || strings.Contains(q, "how to") || strings.Contains(q, "effective"):
		if text := strings.TrimSpace(cc.ComplaintText); text != "" {
			return draftFeedback(text)
		}
		return "To write an effective complaint, be clear and specific:\n" +
			"• Describe the problem clearly (what, where, when)\n" +
			"• Include location (area code, area name)\n" +
			"• Mention how it affects you\n" +
			"• Attach photos if available"
	case strings.Contains(q, "status") || strings.Contains(q, "track"):
		return "Track your complaint in the dashboard. Statuses:\n" +
			"• Submitted - Complaint received\n" +
			"• Under Review - Being reviewed\n" +
			"• In Progress - Action taken\n" +
			"• Resolved - Issue fixed"
	case strings.Contains(q, "category") || strings.Contains(q, "type"):
		return "Categories: " + categoryList() + ".\n\nYour complaint is categorized automatically when you submit it."
	default:
		return "I can help with:\n" +
			"• Writing better complaints\n" +
			"• Understanding the process\n" +
			"• Tracking status\n" +
			"• Category suggestions\n\n" +
			"What would you like to know?"
	}
}

func draftFeedback(text string) string {
	var b strings.Builder
	b.WriteString("Based on your complaint, here's how to improve it:\n\n")
	if !areaCodeInText.MatchString(text) {
		b.WriteString("• Add your 6-digit area code\n")
	}
	if len([]rune(text)) < 20 {
		b.WriteString("• Add more details about the problem\n")
	}
	if !digitsInText.MatchString(text) {
		b.WriteString("• Mention when the issue started (dates/duration)\n")
	}
	b.WriteString("• Be specific about location and impact\n")
	return b.String()
}

func categoryList() string {
	names := make([]string, 0, len(types.Categories()))
	for _, c := range types.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
