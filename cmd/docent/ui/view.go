package ui

import (
	"fmt"
	"strings"
	"time"

	"docent/internal/events"
	"docent/internal/navigation"

	"github.com/charmbracelet/lipgloss"
)

var helpText = map[navigation.Route]string{
	navigation.RouteLaunch:    "enter sign in",
	navigation.RouteHome:      "↑/↓ select · enter open · l like · c camera · s sidebar",
	navigation.RouteCamera:    "↑/↓ aim · enter recognize · esc close",
	navigation.RouteEntry:     "p play · t chat · l like · esc back",
	navigation.RouteChat:      "esc back",
	navigation.RoutePlayer:    "space play/pause · ←/→ seek · h underline · u underlines · s save · esc back",
	navigation.RouteSave:      "↑/↓ folder · enter save/unsave · n new · r rename · d delete · H home",
	navigation.RouteSidebar:   "1 likes · 2 saved · 3 underlines · 4 records · o log out · esc close",
	navigation.RouteLike:      "↑/↓ select · enter unlike · H home",
	navigation.RouteRecord:    "↑/↓ select · n new · d delete · H home",
	navigation.RouteUnderline: "↑/↓ select · d delete · H home",
}

func (m Model) View() string {
	snap := m.app.Snapshot()
	if snap.Top == nil {
		return "starting…"
	}

	var b strings.Builder
	header := "docent"
	if !snap.User.IsZero() {
		header += " · " + snap.User.Nickname
	}
	b.WriteString(m.styles.Header.Render(header))
	b.WriteString("\n")
	if m.showStack {
		crumbs := make([]string, len(snap.Routes))
		for i, r := range snap.Routes {
			crumbs[i] = r.Title()
		}
		line := strings.Join(crumbs, " › ")
		if snap.Overlay != "" {
			line += " [" + snap.Overlay.Title() + "]"
		}
		b.WriteString(m.styles.Breadcrumb.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	ss := m.current()
	body := m.body(ss)
	if snap.Overlay != "" {
		body = m.styles.Overlay.Render(body)
	}
	b.WriteString(body)
	b.WriteString("\n")

	if m.st.prompt != nil {
		b.WriteString("\n" + m.st.prompt.input.View() + "\n")
	}
	if m.st.flash != "" {
		style := m.styles.Flash
		if m.st.flashErr {
			style = m.styles.Error
		}
		b.WriteString("\n" + style.Render(m.st.flash) + "\n")
	}
	b.WriteString("\n" + m.styles.Footer.Render(helpText[ss.screen.Route]+" · q quit"))
	return b.String()
}

func (m Model) body(ss *screenState) string {
	title := m.styles.Title.Render(ss.screen.Route.Title())
	switch ss.screen.Route {
	case navigation.RouteLaunch:
		return title + "\n" + m.styles.Muted.Render("Press enter to sign in.")

	case navigation.RouteHome, navigation.RouteCamera:
		lines := make([]string, len(m.docents))
		for i, d := range m.docents {
			label := d.Title
			if ss.likes != nil {
				if liked, _ := ss.likes.Liked(events.TargetArtwork, d.ID); liked {
					label += " ♥"
				}
			}
			lines[i] = m.item(label, i == ss.cursor)
		}
		if len(lines) == 0 {
			lines = append(lines, m.styles.Muted.Render("No narration scripts loaded."))
		}
		return title + "\n" + strings.Join(lines, "\n")

	case navigation.RouteEntry:
		if ss.docent == nil {
			return title + "\n" + m.styles.Error.Render("unknown docent")
		}
		doc := ss.docent.Index.Document()
		info := fmt.Sprintf("%d paragraphs · %s", doc.Len(), formatDuration(doc.Duration()))
		if liked, _ := ss.likes.Liked(events.TargetArtwork, ss.docent.ID); liked {
			info += " · ♥"
		}
		return title + "\n" + ss.docent.Title + "\n" + m.styles.Muted.Render(info)

	case navigation.RouteChat:
		return title + "\n" + m.styles.Muted.Render("Chat with the docent is not available offline.")

	case navigation.RoutePlayer:
		return title + "\n" + m.playerBody(ss)

	case navigation.RouteSave:
		folders := m.folders(ss)
		lines := make([]string, len(folders))
		for i, f := range folders {
			lines[i] = m.item(fmt.Sprintf("%s (%d)", f.Name, f.DocentCount), i == ss.cursor)
		}
		if len(lines) == 0 {
			lines = append(lines, m.styles.Muted.Render("No folders yet. Press n to create one."))
		}
		return title + "\n" + strings.Join(lines, "\n")

	case navigation.RouteSidebar:
		dash := m.app.View(ss.screen).Dashboard()
		if dash == nil {
			return title + "\n" + m.styles.Muted.Render("Loading…")
		}
		return title + "\n" + fmt.Sprintf("♥ %d   saved %d   underlines %d   records %d",
			dash.Likes, dash.Saved, dash.Highlights, dash.Records)

	case navigation.RouteLike:
		var lines []string
		if ss.liked != nil {
			for i, it := range ss.liked.Items() {
				lines = append(lines, m.item(fmt.Sprintf("%s #%d", it.TargetKind, it.TargetID), i == ss.cursor))
			}
		}
		return title + "\n" + m.orEmpty(lines, "Nothing liked yet.")

	case navigation.RouteRecord:
		var lines []string
		if ss.records != nil {
			for i, r := range ss.records.Items() {
				lines = append(lines, m.item(r.CreatedAt.Local().Format("2006-01-02")+"  "+r.Title, i == ss.cursor))
			}
		}
		return title + "\n" + m.orEmpty(lines, "No visit records.")

	case navigation.RouteUnderline:
		var lines []string
		if ss.highlights != nil {
			for i, h := range ss.highlights.Items() {
				lines = append(lines, m.item(fmt.Sprintf("“%s”", h.Text), i == ss.cursor))
			}
		}
		return title + "\n" + m.orEmpty(lines, "No underlines.")
	}
	return title
}

func (m Model) playerBody(ss *screenState) string {
	if ss.player == nil {
		return m.styles.Error.Render("no narration for this docent")
	}
	p := ss.player
	pos := p.Position()

	var content strings.Builder
	for i, para := range p.Document().Paragraphs() {
		for j, s := range para.Sentences {
			text := s.Text
			if i == pos.Paragraph && j == pos.Sentence {
				text = m.styles.Active.Render(text)
			} else if i != pos.Paragraph {
				text = m.styles.Muted.Render(text)
			}
			content.WriteString(text + " ")
		}
		content.WriteString("\n\n")
	}
	vp := m.viewport
	vp.SetContent(lipgloss.NewStyle().Width(vp.Width).Render(content.String()))

	ratio := 0.0
	if d := p.Duration(); d > 0 {
		ratio = float64(p.At()) / float64(d)
	}
	state := "paused"
	if p.Playing() {
		state = "playing"
	}
	status := fmt.Sprintf("%s / %s  %s", formatDuration(p.At()), formatDuration(p.Duration()), state)
	return vp.View() + "\n" + m.progress.ViewAs(ratio) + "\n" + m.styles.Muted.Render(status)
}

func (m Model) item(label string, selected bool) string {
	if selected {
		return m.styles.Selected.Render(label)
	}
	return m.styles.Item.Render(label)
}

func (m Model) orEmpty(lines []string, empty string) string {
	if len(lines) == 0 {
		return m.styles.Muted.Render(empty)
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
