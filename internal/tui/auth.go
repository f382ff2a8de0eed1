package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type authMode int

const (
	modeLogin authMode = iota
	modeSignup
)

const (
	inputUsername = iota
	inputEmail
	inputPassword
)

// authForm is the login/signup screen.
type authForm struct {
	mode   authMode
	inputs []textinput.Model
	focus  int
	busy   bool
}

func newAuthForm() authForm {
	inputs := make([]textinput.Model, 3)
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 128
		ti.Width = 36
		inputs[i] = ti
	}
	inputs[inputUsername].Placeholder = "username"
	inputs[inputEmail].Placeholder = "email"
	inputs[inputPassword].Placeholder = "password"
	inputs[inputPassword].EchoMode = textinput.EchoPassword
	inputs[inputPassword].EchoCharacter = '•'

	f := authForm{inputs: inputs}
	f.focus = f.visible()[0]
	f.inputs[f.focus].Focus()
	return f
}

// visible returns the inputs shown in the current mode.
func (f authForm) visible() []int {
	if f.mode == modeSignup {
		return []int{inputUsername, inputEmail, inputPassword}
	}
	return []int{inputEmail, inputPassword}
}

func (f *authForm) setFocus(idx int) {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.focus = idx
	f.inputs[idx].Focus()
}

func (f *authForm) cycle(delta int) {
	vis := f.visible()
	pos := 0
	for i, idx := range vis {
		if idx == f.focus {
			pos = i
		}
	}
	pos = (pos + delta + len(vis)) % len(vis)
	f.setFocus(vis[pos])
}

func (f *authForm) toggleMode() {
	if f.mode == modeLogin {
		f.mode = modeSignup
	} else {
		f.mode = modeLogin
	}
	f.setFocus(f.visible()[0])
}

func (f authForm) value(idx int) string {
	return strings.TrimSpace(f.inputs[idx].Value())
}

// update handles a key on the form. submit is true when enter was pressed
// on the last field.
func (f authForm) update(msg tea.KeyMsg) (authForm, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "down":
		f.cycle(1)
		return f, nil, false
	case "shift+tab", "up":
		f.cycle(-1)
		return f, nil, false
	case "ctrl+t":
		f.toggleMode()
		return f, nil, false
	case "enter":
		vis := f.visible()
		if f.focus != vis[len(vis)-1] {
			f.cycle(1)
			return f, nil, false
		}
		return f, nil, true
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

func (f authForm) view() string {
	var b strings.Builder
	title := "Log in"
	other := "ctrl+t: create an account"
	if f.mode == modeSignup {
		title = "Sign up"
		other = "ctrl+t: back to log in"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	for _, idx := range f.visible() {
		b.WriteString(f.inputs[idx].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if f.busy {
		b.WriteString(dimStyle.Render("working..."))
	} else {
		b.WriteString(dimStyle.Render("enter: submit · tab: next field · " + other))
	}
	return formStyle.Render(b.String())
}
