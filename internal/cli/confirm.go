package cli

import (
	tea "github.com/charmbracelet/bubbletea"
)

// confirmModel is a minimal y/n prompt.
type confirmModel struct {
	prompt    string
	confirmed bool
	answered  bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y", "enter":
			m.confirmed = true
			m.answered = true
			return m, tea.Quit
		case "n", "N", "q", "esc", "ctrl+c":
			m.answered = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.answered {
		return ""
	}
	return styleIconWarning.Render(iconWarning) + " " + m.prompt + " " + StyleDim.Render("[y/N]") + "\n"
}

// confirm shows an interactive y/n prompt and reports the user's choice.
func confirm(prompt string) (bool, error) {
	final, err := tea.NewProgram(confirmModel{prompt: prompt}).Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(confirmModel)
	return ok && m.confirmed, nil
}
