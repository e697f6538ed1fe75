package ui

import (
	"fmt"
	"strings"
	"time"

	"docent/internal/events"
	"docent/internal/navigation"
	"docent/internal/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progress.Width = max(10, msg.Width-8)
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(4, msg.Height-10)
		return m, nil

	case loopReadyMsg:
		m.loop.Drain()
		return m, waitLoop(m.loop)

	case loopDoneMsg:
		return m, nil

	case tickMsg:
		m.advance(time.Time(msg))
		return m, m.tickCmd()

	case ThemeMsg:
		m.styles = NewStyles(ThemeFor(msg.Theme))
		m.showStack = msg.ShowStack
		return m, nil

	case tea.KeyMsg:
		if m.st.prompt != nil {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) advance(now time.Time) {
	last := m.st.lastTick
	m.st.lastTick = now
	if last.IsZero() {
		return
	}
	ss := m.current()
	if ss == nil || ss.player == nil {
		return
	}
	ss.player.Advance(now.Sub(last))
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.st.prompt
	switch msg.String() {
	case "esc":
		m.st.prompt = nil
		return m, nil
	case "enter":
		value := strings.TrimSpace(p.input.Value())
		m.st.prompt = nil
		if value != "" {
			p.submit(value)
		}
		return m, nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		if m.st.release != nil {
			m.st.release()
		}
		return m, tea.Quit
	case "esc", "backspace":
		m.st.flash = ""
		m.app.Pop()
		return m, nil
	}

	ss := m.current()
	if ss == nil {
		return m, nil
	}
	view := m.app.Current()

	switch key {
	case "up", "k":
		if ss.cursor > 0 {
			ss.cursor--
		}
		return m, nil
	case "down", "j":
		if ss.cursor < m.itemCount(ss)-1 {
			ss.cursor++
		}
		return m, nil
	case "H":
		m.setError(view.PopToHome())
		return m, nil
	}

	switch ss.screen.Route {
	case navigation.RouteLaunch:
		if key == "enter" {
			return m, m.ask("Nickname", func(name string) {
				m.setError(view.CompleteLogin(uuid.NewString(), types.UserInfo{ID: 1, Nickname: name}))
			})
		}

	case navigation.RouteHome:
		d := m.selectedDocent(ss)
		switch key {
		case "enter":
			if d == nil {
				m.setError(fmt.Errorf("no docent selected"))
				return m, nil
			}
			m.setError(view.ShowEntry(d.ID))
		case "c":
			m.setError(view.ShowCamera())
		case "s":
			m.setError(view.ShowSidebar())
		case "l":
			if d != nil {
				m.toggleLike(view.ToggleLike, d.ID)
			}
		}

	case navigation.RouteCamera:
		if key == "enter" {
			if d := m.selectedDocent(ss); d != nil {
				m.setError(view.ShowRecognized(d.ID))
			}
		}

	case navigation.RouteEntry:
		id := ss.screen.Params.DocentID
		switch key {
		case "p", "enter":
			m.setError(view.ShowPlayer(id))
		case "t":
			m.setError(view.ShowChat(id))
		case "l":
			m.toggleLike(view.ToggleLike, id)
		}

	case navigation.RoutePlayer:
		m.handlePlayerKey(ss, key)

	case navigation.RouteSave:
		return m, m.handleSaveKey(ss, key)

	case navigation.RouteSidebar:
		switch key {
		case "1":
			m.setError(view.ShowLikes())
		case "2":
			m.setError(view.ShowSaved())
		case "3":
			m.setError(view.ShowUnderlines())
		case "4":
			m.setError(view.ShowRecords())
		case "o":
			m.setError(view.Logout())
		}

	case navigation.RouteLike:
		if key == "enter" && ss.liked != nil && ss.cursor < len(ss.liked.Items()) {
			item := ss.liked.Items()[ss.cursor]
			view.ToggleLike(events.TargetKind(item.TargetKind), item.TargetID, func(_ bool, err error) {
				m.setError(err)
			})
		}

	case navigation.RouteRecord:
		switch key {
		case "n":
			return m, m.ask("Record title", func(title string) {
				view.CreateRecord(title, "", func(r types.Record, err error) {
					if err != nil {
						m.setError(err)
						return
					}
					m.setFlash(fmt.Sprintf("Recorded %q", r.Title))
				})
			})
		case "d":
			if ss.records != nil && ss.cursor < len(ss.records.Items()) {
				view.DeleteRecord(ss.records.Items()[ss.cursor].ID, m.setError)
			}
		}

	case navigation.RouteUnderline:
		if key == "d" && ss.highlights != nil && ss.cursor < len(ss.highlights.Items()) {
			view.RemoveHighlight(ss.highlights.Items()[ss.cursor].ID, m.setError)
		}
	}
	return m, nil
}

func (m Model) handlePlayerKey(ss *screenState, key string) {
	if ss.player == nil {
		return
	}
	view := m.app.Current()
	id := ss.screen.Params.DocentID
	switch key {
	case " ", "space":
		ss.player.Toggle()
	case "left":
		ss.player.SeekBy(-1)
	case "right":
		ss.player.SeekBy(1)
	case "s":
		m.setError(view.ShowSave(id, nil))
	case "u":
		m.setError(view.ShowUnderline(id))
	case "h":
		para, ok := ss.player.Paragraph()
		if !ok {
			m.setError(fmt.Errorf("nothing is being narrated"))
			return
		}
		text := para.Text()
		if s, ok := ss.player.Sentence(); ok {
			text = s.Text
		}
		view.AddHighlight(id, para.ID, text, func(h types.Highlight, err error) {
			if err != nil {
				m.setError(err)
				return
			}
			m.setFlash("Underlined: " + h.Text)
		})
	}
}

func (m Model) handleSaveKey(ss *screenState, key string) tea.Cmd {
	view := m.app.Current()
	folders := m.folders(ss)
	var selected *types.Folder
	if ss.cursor < len(folders) {
		selected = &folders[ss.cursor]
	}

	switch key {
	case "enter":
		docentID := ss.screen.Params.DocentID
		if docentID == 0 {
			return nil
		}
		var folderID *int64
		if selected != nil {
			id := selected.ID
			folderID = &id
		}
		view.SaveDocent(docentID, folderID, func(saved bool, err error) {
			if err != nil {
				m.setError(err)
				return
			}
			if saved {
				m.setFlash("Saved")
			} else {
				m.setFlash("Removed from folder")
			}
		})
	case "n":
		return m.ask("Folder name", func(name string) {
			view.CreateFolder(name, func(f types.Folder, err error) {
				if err != nil {
					m.setError(err)
					return
				}
				m.setFlash(fmt.Sprintf("Created %q", f.Name))
			})
		})
	case "r":
		if selected == nil {
			return nil
		}
		id := selected.ID
		return m.ask("Rename to", func(name string) {
			view.RenameFolder(id, name, m.setError)
		})
	case "d":
		if selected != nil {
			view.DeleteFolder(selected.ID, m.setError)
		}
	}
	return nil
}

type likeFunc func(events.TargetKind, int64, func(bool, error))

func (m Model) toggleLike(toggle likeFunc, id int64) {
	toggle(events.TargetArtwork, id, func(liked bool, err error) {
		if err != nil {
			m.setError(err)
			return
		}
		if liked {
			m.setFlash("Liked")
		} else {
			m.setFlash("Unliked")
		}
	})
}

func (m Model) selectedDocent(ss *screenState) *Docent {
	if ss.cursor < 0 || ss.cursor >= len(m.docents) {
		return nil
	}
	return &m.docents[ss.cursor]
}

// folders prefers the live list and falls back to what the screen was
// opened with.
func (m Model) folders(ss *screenState) []types.Folder {
	if ss.folders != nil && ss.folders.Loads() > 0 && ss.folders.Err() == nil {
		return ss.folders.Items()
	}
	return ss.screen.Params.Folders
}

func (m Model) itemCount(ss *screenState) int {
	switch ss.screen.Route {
	case navigation.RouteHome, navigation.RouteCamera:
		return len(m.docents)
	case navigation.RouteSave:
		return len(m.folders(ss))
	case navigation.RouteRecord:
		if ss.records != nil {
			return len(ss.records.Items())
		}
	case navigation.RouteUnderline:
		if ss.highlights != nil {
			return len(ss.highlights.Items())
		}
	case navigation.RouteLike:
		if ss.liked != nil {
			return len(ss.liked.Items())
		}
	}
	return 0
}
