package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ilmai/ilmcli/internal/client/auth"
	"github.com/ilmai/ilmcli/internal/client/models"
)

// suggestedQuestions seed an empty conversation, keyed by language toggle.
var suggestedQuestions = map[string][]string{
	"en": {
		"What does the Quran say about patience?",
		"Explain the conditions of valid wudu.",
		"What are the pillars of salah according to the four madhhabs?",
	},
	"bn": {
		"ধৈর্য সম্পর্কে কুরআন কী বলে?",
		"সহীহ ওযুর শর্তগুলো ব্যাখ্যা করুন।",
		"চার মাযহাব অনুযায়ী সালাতের রুকনগুলো কী কী?",
	},
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var body string
	switch m.view {
	case viewChat:
		body = m.chatView()
	case viewSessions:
		body = m.sessionsView()
	case viewLibrary:
		body = m.libraryView()
	case viewUsage:
		body = m.usageView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), body, m.footerView())
}

func (m Model) headerView() string {
	tabs := make([]string, 0, 4)
	for v := viewChat; v <= viewUsage; v++ {
		if v == m.view {
			tabs = append(tabs, activeTabStyle.Render(v.title()))
		} else {
			tabs = append(tabs, tabStyle.Render(v.title()))
		}
	}
	return headerStyle.Render("IlmAI") + " " + strings.Join(tabs, " ")
}

func (m Model) footerView() string {
	parts := []string{
		fmt.Sprintf("mode:%s", m.deps.Dispatcher.Mode()),
		fmt.Sprintf("lang:%s", languageName(m.deps.Dispatcher.Language())),
	}

	switch m.deps.Auth.Status() {
	case auth.StatusAuthenticated:
		parts = append(parts, m.deps.Auth.Profile().Email)
		if snapshot, ok := m.deps.Usage.Snapshot(); ok {
			if snapshot.IsUnlimited {
				parts = append(parts, fmt.Sprintf("%s tier", snapshot.Tier))
			} else {
				parts = append(parts, fmt.Sprintf("%d/%d queries", snapshot.UsageCount, snapshot.UsageLimit))
			}
		}
	case auth.StatusAnonymous:
		parts = append(parts, "anonymous (ilmcli login to sign in)")
	}

	line := dimStyle.Render(strings.Join(parts, " · "))
	help := dimStyle.Render("tab views · f2 mode · f3 lang · ctrl+s save sources · ctrl+n new chat · ctrl+c quit")

	status := ""
	if m.status != "" {
		status = statusStyle.Render(m.status)
	}
	if m.deps.Usage.Exhausted() {
		status = warnStyle.Render("Query limit reached. Press tab to Usage and u to upgrade.")
	}

	if m.view == viewChat {
		prompt := m.input.View()
		if m.busy {
			prompt = m.spin.View() + " thinking..."
		}
		return lipgloss.JoinVertical(lipgloss.Left, status, prompt, line+"  "+help)
	}
	return lipgloss.JoinVertical(lipgloss.Left, status, line+"  "+help)
}

func (m Model) chatView() string {
	return m.vp.View()
}

// refreshViewport rebuilds the chat viewport from the transcript.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	msgs := m.deps.Transcript.Messages()

	for _, msg := range msgs {
		switch msg.Role {
		case models.RoleUser:
			b.WriteString(userStyle.Render("You") + "\n")
			b.WriteString(msg.Content + "\n\n")
		default:
			b.WriteString(assistantStyle.Render("IlmAI") + "\n")
			b.WriteString(m.renderMarkdown(msg.Content))
			if len(msg.Citations) > 0 {
				for _, c := range msg.Citations {
					b.WriteString(citationStyle.Render("  › "+c) + "\n")
				}
			}
			for _, s := range msg.Sources {
				line := fmt.Sprintf("  [%s] %s  %s", s.Type, s.ID, truncate(s.Content, 70))
				b.WriteString(citationStyle.Render(line) + "\n")
			}
			if len(msg.Sources) > 0 {
				b.WriteString(dimStyle.Render("  ctrl+s saves these to your library") + "\n")
			}
			b.WriteString("\n")
		}
	}

	if len(msgs) == 1 {
		b.WriteString(dimStyle.Render("Try one of these (press its number to ask):") + "\n")
		for i, q := range suggestedQuestions[suggestionLang(m.deps.Dispatcher.Language())] {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  %d. %s", i+1, q)) + "\n")
		}
	}

	m.vp.SetContent(b.String())
}

func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content + "\n"
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}

func (m Model) sessionsView() string {
	sessions := m.deps.Registry.Sessions()
	if len(sessions) == 0 {
		return dimStyle.Render("\n  No research sessions yet. Ask a question to start one.\n")
	}

	currentID, _ := m.deps.Registry.Current()
	var b strings.Builder
	b.WriteString("\n")
	for i, s := range sessions {
		marker := "  "
		if s.ID == currentID {
			marker = "* "
		}
		line := fmt.Sprintf("%s%s  %s", marker, s.CreatedAt.Format("2006-01-02"), s.Title)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(dimStyle.Render("\n  enter open · d delete · n new chat · r refresh · esc back\n"))
	return b.String()
}

func (m Model) libraryView() string {
	filter := libraryFilters[m.libFilter]
	citations := m.deps.Library.Citations(filter)

	var b strings.Builder
	b.WriteString("\n")
	if filter != "" {
		b.WriteString(dimStyle.Render("  filter: "+filter) + "\n\n")
	}
	if len(citations) == 0 {
		b.WriteString(dimStyle.Render("  No saved citations.\n"))
	}
	for i, c := range citations {
		line := fmt.Sprintf("  [%s] %s — %s", c.SourceType, c.SourceID, truncate(c.Content, 80))
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(dimStyle.Render("\n  d delete · f filter · r refresh · esc back\n"))
	return b.String()
}

func (m Model) usageView() string {
	var b strings.Builder
	b.WriteString("\n")

	if m.deps.Auth.Status() != auth.StatusAuthenticated {
		b.WriteString(dimStyle.Render("  Sign in to track usage: ilmcli login\n"))
		return b.String()
	}

	snapshot, ok := m.deps.Usage.Snapshot()
	if !ok {
		b.WriteString(dimStyle.Render("  Usage not available. Press r to retry.\n"))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  Tier:    %s\n", snapshot.Tier))
	if snapshot.IsUnlimited {
		b.WriteString(fmt.Sprintf("  Queries: %d (unlimited)\n", snapshot.UsageCount))
	} else {
		b.WriteString(fmt.Sprintf("  Queries: %d of %d\n", snapshot.UsageCount, snapshot.UsageLimit))
		if snapshot.UsageCount >= snapshot.UsageLimit {
			b.WriteString(warnStyle.Render("\n  Limit reached. Press u to upgrade to premium.\n"))
		}
	}
	b.WriteString(dimStyle.Render("\n  u upgrade · r refresh · esc back\n"))
	return b.String()
}

// suggestionLang maps the dispatcher's language toggle onto a suggestion set.
func suggestionLang(code string) string {
	if code == "bn" {
		return "bn"
	}
	return "en"
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
