package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
	"golang.org/x/term"
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

func runConsole(args []string) error {
	var common commonFlags
	var plain bool

	flagSet := pflag.NewFlagSet("console", pflag.ContinueOnError)
	common.add(flagSet)
	flagSet.BoolVar(&plain, "plain", false, "line mode even on a terminal")
	if err := parseFlags(flagSet, "console [flags]", args); err != nil {
		if isHelp(err) {
			return nil
		}
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	log, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	shared, err := openFileSystem(cfg)
	if err != nil {
		return err
	}
	defer shared.Release()

	sess, err := newLocalSession(cfg, shared)
	if err != nil {
		return err
	}
	defer sess.Close()

	cl := localCaller{session: sess}
	if plain || !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runPlainConsole(context.Background(), cl, sess.Root(), os.Stdin, os.Stdout)
	}

	program := tea.NewProgram(newConsoleModel(cl, sess.Root(), cfg.Storage.Root), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// runPlainConsole reads one command per line: a name followed by
// whitespace separated arguments.
func runPlainConsole(ctx context.Context, cl caller, root uint32, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "help":
			for _, c := range commands {
				fmt.Fprintln(out, c.signature())
			}
			continue
		}

		cmd, ok := lookupCommand(fields[0])
		if !ok {
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
			continue
		}
		res, _, err := cmd.execute(ctx, cl, root, fields[1:])
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, res)
	}
	return scanner.Err()
}

type modelState int

const (
	stateSelectCommand modelState = iota
	stateInputArgs
	stateShowResult
)

type consoleModel struct {
	err      error
	caller   caller
	root     uint32
	title    string
	result   string
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type callResultMsg struct {
	err    error
	result string
}

func newConsoleModel(cl caller, root uint32, title string) *consoleModel {
	return &consoleModel{
		caller: cl,
		root:   root,
		title:  title,
		state:  stateSelectCommand,
	}
}

func (m *consoleModel) Init() tea.Cmd {
	return nil
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectCommand && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectCommand && m.selected < len(commands)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectCommand:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callCommand
				}
				m.state = stateInputArgs
				return m, nil

			case stateInputArgs:
				return m, m.callCommand

			case stateShowResult:
				m.state = stateSelectCommand
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
				m.state = stateSelectCommand
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectCommand
				m.result = ""
				m.err = nil
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
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

func (m *consoleModel) prepareInputs() {
	c := commands[m.selected]
	m.inputs = make([]textinput.Model, len(c.params))
	for i, prm := range c.params {
		ti := textinput.New()
		ti.Placeholder = witTypeStr(prm.witType)
		ti.Prompt = prm.name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *consoleModel) callCommand() tea.Msg {
	raw := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		raw[i] = input.Value()
	}
	out, _, err := commands[m.selected].execute(context.Background(), m.caller, m.root, raw)
	return callResultMsg{result: out, err: err}
}

func (m *consoleModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("fsproxy"))
	b.WriteString(" ")
	b.WriteString(m.title)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectCommand:
		b.WriteString("Select a command:\n\n")
		for i, c := range commands {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + c.name))
				b.WriteString(" ")
				b.WriteString(m.formatParams(c))
			} else {
				b.WriteString("  " + funcStyle.Render(c.name) + " " + m.formatParams(c))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		c := commands[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(c.name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(witTypeStr(c.params[i].witType)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		c := commands[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(c.name)))
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

func (m *consoleModel) formatParams(c commandInfo) string {
	params := make([]string, len(c.params))
	for i, prm := range c.params {
		params[i] = prm.name + ": " + typeStyle.Render(witTypeStr(prm.witType))
	}
	s := "(" + strings.Join(params, ", ") + ")"
	if c.output != "" {
		s += " -> " + typeStyle.Render(c.output)
	}
	return s
}
