package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/proxy"
	"github.com/cloakffi/cloak/registry"
	"github.com/cloakffi/cloak/wasmns"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err       error
	wasmFile  string
	ifaceFile string
	demo      bool

	ns     *wasmns.Module
	reg    *registry.Registry
	closer func()

	funcs    []cloak.Function
	history  []any
	inputs   []textinput.Model
	result   string
	selected int
	focusIdx int
	state    modelState
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

type loadedMsg struct {
	err    error
	ns     *wasmns.Module
	closer func()
	funcs  []cloak.Function
}

type callResultMsg struct {
	err    error
	result string
	value  any
}

func newInteractiveModel(wasmFile, ifaceFile string, demo bool) *interactiveModel {
	return &interactiveModel{
		wasmFile:  wasmFile,
		ifaceFile: ifaceFile,
		demo:      demo,
		reg:       proxy.NewRegistry(),
		state:     stateSelectFunc,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModule
}

func (m *interactiveModel) loadModule() tea.Msg {
	ns, closer, err := loadNamespace(context.Background(), m.wasmFile, m.ifaceFile, m.demo)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{ns: ns, closer: closer, funcs: ns.Functions()}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateInputArgs && msg.String() == "q" {
				break
			}
			if m.closer != nil {
				m.closer()
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.ns = msg.ns
		m.closer = msg.closer
		m.funcs = msg.funcs

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		if msg.err == nil && isHandleValue(msg.value) {
			m.history = append(m.history, msg.value)
			m.result += helpStyle.Render(fmt.Sprintf("   (saved as #%d)", len(m.history)-1))
		}
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func isHandleValue(v any) bool {
	switch v.(type) {
	case *proxy.Proxy, cloak.Handle:
		return true
	}
	return false
}

func (m *interactiveModel) prepareInputs() {
	f := m.funcs[m.selected]
	m.inputs = make([]textinput.Model, len(f.Params()))
	for i, p := range f.Params() {
		ti := textinput.New()
		ti.Placeholder = p.Name()
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callFunction() tea.Msg {
	ctx := context.Background()

	f := m.funcs[m.selected]
	args := make([]any, len(m.inputs))
	for i, input := range m.inputs {
		v, err := m.convertArg(input.Value(), f.Params()[i])
		if err != nil {
			return callResultMsg{err: fmt.Errorf("arg%d: %w", i, err)}
		}
		args[i] = v
	}

	bm, err := proxy.Func(m.ns, m.reg, f.Name())
	if err != nil {
		return callResultMsg{err: err}
	}
	res, err := bm.Invoke(ctx, args...)
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: formatValue(res), value: res}
}

// convertArg parses one input per the declared parameter type. Pointer and
// struct arguments reference earlier results by "#n".
func (m *interactiveModel) convertArg(value string, t cloak.Type) (any, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "#") {
		idx, err := strconv.Atoi(value[1:])
		if err != nil || idx < 0 || idx >= len(m.history) {
			return nil, fmt.Errorf("no saved result %s", value)
		}
		return m.history[idx], nil
	}
	return parseArg(value, t)
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if len(m.funcs) == 0 {
		return "Loading module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("cloak"))
	if m.demo {
		b.WriteString(" built-in point library")
	} else {
		b.WriteString(" " + m.wasmFile)
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatFunc(f)))
			} else {
				b.WriteString(cursor + m.formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.Name())))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(f.Params()[i].Name()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • #n saved result • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.Name())))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatFunc(f cloak.Function) string {
	var params []string
	for i, p := range f.Params() {
		params = append(params, fmt.Sprintf("arg%d: %s", i, typeStyle.Render(p.Name())))
	}
	result := ""
	if f.Result() != nil && f.Result().Kind() != cloak.KindVoid {
		result = " -> " + typeStyle.Render(f.Result().Name())
	}
	return funcStyle.Render(f.Name()) + "(" + strings.Join(params, ", ") + ")" + result
}

func runInteractive(wasmFile, ifaceFile string, demo bool) error {
	p := tea.NewProgram(newInteractiveModel(wasmFile, ifaceFile, demo), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
