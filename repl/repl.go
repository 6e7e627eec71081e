// Package repl implements the interactive Read-Eval-Print Loop for Core.
//
// Grounded on dr8co-kong/repl/repl.go's Bubbletea/Bubbles/Lipgloss Elm
// architecture: a model holding a textinput.Model, a spinner.Model and
// a scrollback of history entries, an async evalCmd that runs the whole
// parse/compile/execute pipeline off the UI goroutine, and lipgloss
// styles distinguishing prompt, result and error output. The teacher's
// persistent *object.Environment becomes a persistent symtab.Table here:
// each accepted definition is merged into it (§6's overwrite rule) so
// later REPL lines see earlier ones.
package repl

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dr8co/corec/ast"
	"github.com/dr8co/corec/codegen"
	"github.com/dr8co/corec/lift"
	"github.com/dr8co/corec/machine"
	"github.com/dr8co/corec/prelude"
	"github.com/dr8co/corec/resolve"
	"github.com/dr8co/corec/surface"
	"github.com/dr8co/corec/symtab"
)

const (
	// Prompt is the default prompt for the REPL.
	Prompt = "core> "

	// ContPrompt is shown while a multiline definition is being entered.
	ContPrompt = "....> "

	// anonName is the synthetic supercombinator name a bare expression
	// is wrapped in so it can be run through the same pipeline as a
	// named definition — never visible to the user, and never merged
	// into the persistent table.
	anonName = "_repl_it"
)

// Options configures the REPL's output.
type Options struct {
	NoColor bool // Disable styled output.
	Debug   bool // Print pipeline timings to stdout.
}

// Start initializes and runs the REPL with the given username and
// options, blocking until the user exits.
func Start(username string, options Options) {
	p := tea.NewProgram(initialModel(username, options))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error running program:", err)
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	parseErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")).
			Bold(true)

	runtimeErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF8700")).
				Bold(true)

	historyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676"))
)

// ErrorType distinguishes why an evaluation failed, for styling.
type ErrorType int

const (
	NoError ErrorType = iota
	ParseError
	RuntimeError
)

// evalResultMsg is delivered once an async evalCmd finishes.
type evalResultMsg struct {
	output    string
	isError   bool
	errorType ErrorType
	elapsed   time.Duration
	table     *symtab.Table // the table to adopt, including any new defs
}

type historyEntry struct {
	input          string
	output         string
	isError        bool
	errorType      ErrorType
	evaluationTime time.Duration
}

type model struct {
	textInput       textinput.Model
	history         []historyEntry
	table           *symtab.Table
	username        string
	evaluating      bool
	currentInput    string
	multilineBuffer string
	isMultiline     bool
	spinner         spinner.Model
	options         Options
}

func (m model) applyStyle(style lipgloss.Style, text string) string {
	if m.options.NoColor {
		return text
	}
	return style.Render(text)
}

func initialModel(username string, options Options) model {
	ti := textinput.New()
	ti.Placeholder = "define a supercombinator, or enter an expression"
	ti.Focus()
	ti.Width = 80
	ti.Prompt = promptStyle.Render(Prompt)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	table := symtab.New()
	table.Merge(prelude.AST())

	return model{
		textInput: ti,
		table:     table,
		username:  username,
		spinner:   s,
		options:   options,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// isBalanced checks whether parens, braces and brackets balance, so the
// REPL knows to keep accepting lines of a multi-line definition instead
// of submitting a half-written one.
func isBalanced(input string) bool {
	var stack []rune
	pairs := map[rune]rune{')': '(', '}': '{', ']': '['}
	for _, r := range input {
		switch r {
		case '(', '{', '[':
			stack = append(stack, r)
		case ')', '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}

// cloneTable copies a symtab.Table's current definitions into a fresh
// one, so a failed or anonymous evaluation never mutates the model's
// persistent table — only a successful named definition does, via the
// message returned from evalCmd.
func cloneTable(t *symtab.Table) *symtab.Table {
	out := symtab.New()
	for _, r := range t.All() {
		out.Define(r.Name, r.Params, r.Body)
	}
	return out
}

// tableProgram turns a table's current records into an ast.Program fit
// for lift.Run and resolve.Program.
func tableProgram(t *symtab.Table) *ast.Program {
	recs := t.All()
	defs := make([]*ast.Def, 0, len(recs))
	for _, r := range recs {
		defs = append(defs, &ast.Def{Name: r.Name, Params: r.Params, Body: r.Body})
	}
	return &ast.Program{Defs: defs}
}

// compileAndRun lowers a full program and evaluates entry to WHNF,
// rendering the result. Duplicated (rather than shared) between repl and
// cmd/corec, matching how the teacher's main.go and repl.go each set up
// their own lexer/parser/evaluator without a shared driver package.
func compileAndRun(prog *ast.Program, entry string) (string, error) {
	prog = lift.Run(prog)
	if err := resolve.Program(prog, prelude.Names()...); err != nil {
		return "", err
	}
	c := codegen.New()
	code, constants, err := c.Compile(prog)
	if err != nil {
		return "", err
	}
	primCode, primArities := prelude.Primitives()
	arities := c.Arities()
	for name, ins := range primCode {
		code[name] = ins
	}
	for name, a := range primArities {
		arities[name] = a
	}
	m, err := machine.New(code, arities, constants)
	if err != nil {
		return "", err
	}
	if _, err := m.Run(entry); err != nil {
		return "", err
	}
	// Run has already driven entry's global to WHNF; Render re-derefs
	// and re-forces from the same address, which is cheap once reduced
	// to an indirection chain and keeps Render's contract (an address,
	// not a Node) uniform between this call site and Force's internal
	// recursive use.
	return m.Render(m.Globals[entry])
}

// evalCmd runs the whole pipeline off the UI goroutine. It first tries
// input as one or more supercombinator definitions; if that fails to
// parse, it retries as a bare expression wrapped in an anonymous
// definition, so `double x = x + x` and `double 21` both work at the
// prompt.
func evalCmd(input string, table *symtab.Table, debug bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()

		if prog, err := surface.Parse("<repl>", input); err == nil {
			next := cloneTable(table)
			for _, d := range prog.Defs {
				next.Define(d.Name, d.Params, d.Body)
			}
			names := make([]string, len(prog.Defs))
			for i, d := range prog.Defs {
				names[i] = d.Name
			}
			elapsed := time.Since(start)
			if debug {
				fmt.Printf("DEBUG: defined %v in %v\n", names, elapsed)
			}
			return evalResultMsg{
				output:  "defined: " + strings.Join(names, ", "),
				table:   next,
				elapsed: elapsed,
			}
		}

		anonProg, err := surface.Parse("<repl>", anonName+" = "+input)
		if err != nil {
			// Unlike cmd/corec, the REPL never writes straight to the
			// terminal here: Bubbletea owns stdout while its program is
			// running, so the parse error goes into the styled history
			// entry below instead of through surface.ReportParseError.
			return evalResultMsg{
				output:    err.Error(),
				isError:   true,
				errorType: ParseError,
				elapsed:   time.Since(start),
				table:     table,
			}
		}

		full := tableProgram(table)
		full.Defs = append(full.Defs, anonProg.Defs[0])

		output, err := compileAndRun(full, anonName)
		elapsed := time.Since(start)
		if debug {
			fmt.Printf("DEBUG: evaluated %q in %v\n", input, elapsed)
		}
		if err != nil {
			return evalResultMsg{
				output:    err.Error(),
				isError:   true,
				errorType: RuntimeError,
				elapsed:   elapsed,
				table:     table,
			}
		}
		return evalResultMsg{output: output, elapsed: elapsed, table: table}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.evaluating {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case evalResultMsg:
		m.evaluating = false
		if msg.table != nil {
			m.table = msg.table
		}
		m.history = append(m.history, historyEntry{
			input:          m.currentInput,
			output:         msg.output,
			isError:        msg.isError,
			errorType:      msg.errorType,
			evaluationTime: msg.elapsed,
		})
		m.currentInput = ""
		return m, nil

	case tea.KeyMsg:
		if m.evaluating && msg.Type != tea.KeyCtrlC {
			return m, m.spinner.Tick
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			input := m.textInput.Value()
			if input == "" {
				if m.isMultiline {
					if m.multilineBuffer == "" {
						m.isMultiline = false
						return m, nil
					}
					buffer := m.multilineBuffer
					m.evaluating = true
					m.currentInput = buffer
					m.textInput.SetValue("")
					m.isMultiline = false
					m.multilineBuffer = ""
					return m, evalCmd(buffer, m.table, m.options.Debug)
				}
				return m, nil
			}

			if m.isMultiline {
				m.multilineBuffer += "\n" + input
				m.textInput.SetValue("")
				if isBalanced(m.multilineBuffer) {
					buffer := m.multilineBuffer
					m.evaluating = true
					m.currentInput = buffer
					m.isMultiline = false
					m.multilineBuffer = ""
					return m, evalCmd(buffer, m.table, m.options.Debug)
				}
				return m, nil
			}

			if !isBalanced(input) {
				m.isMultiline = true
				m.multilineBuffer = input
				m.textInput.SetValue("")
				return m, nil
			}

			m.evaluating = true
			m.currentInput = input
			m.textInput.SetValue("")
			return m, evalCmd(input, m.table, m.options.Debug)
		}
	}

	if !m.evaluating {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	if m.evaluating {
		return m, m.spinner.Tick
	}
	return m, cmd
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(m.applyStyle(titleStyle, " Core REPL "))
	s.WriteString("\n")
	if m.username != "" {
		s.WriteString(fmt.Sprintf("\nHello %s! Define a supercombinator or enter an expression.\n", m.username))
	}
	s.WriteString("\n")

	for _, entry := range m.history {
		lines := strings.Split(entry.input, "\n")
		for i, line := range lines {
			if i == 0 {
				s.WriteString(m.applyStyle(promptStyle, Prompt))
			} else {
				s.WriteString(m.applyStyle(promptStyle, ContPrompt))
			}
			s.WriteString(line)
			s.WriteString("\n")
		}

		switch {
		case entry.isError && entry.errorType == ParseError:
			s.WriteString(m.applyStyle(parseErrorStyle, entry.output))
		case entry.isError && entry.errorType == RuntimeError:
			s.WriteString(m.applyStyle(runtimeErrorStyle, entry.output))
		case entry.isError:
			s.WriteString(m.applyStyle(errorStyle, entry.output))
		default:
			s.WriteString(m.applyStyle(resultStyle, entry.output))
		}

		if entry.evaluationTime > 10*time.Millisecond {
			s.WriteString(m.applyStyle(historyStyle, fmt.Sprintf(" (%.3fs)", entry.evaluationTime.Seconds())))
		}
		s.WriteString("\n\n")
	}

	if m.evaluating {
		s.WriteString(m.applyStyle(promptStyle, Prompt))
		s.WriteString(m.currentInput)
		s.WriteString("\n")
		s.WriteString(m.spinner.View())
		s.WriteString(" evaluating...\n\n")
	}

	if m.isMultiline && !m.evaluating {
		s.WriteString(m.applyStyle(historyStyle, "unbalanced brackets, continuing:\n"))
		s.WriteString(m.multilineBuffer)
		s.WriteString("\n")
	}

	if !m.evaluating {
		if m.isMultiline {
			m.textInput.Prompt = m.applyStyle(promptStyle, ContPrompt)
		} else {
			m.textInput.Prompt = m.applyStyle(promptStyle, Prompt)
		}
		s.WriteString(m.textInput.View())
		s.WriteString("\n")
	}

	help := "\nPress Esc or Ctrl+C/D to exit"
	if m.isMultiline {
		help += " | empty line evaluates the buffered definition"
	}
	s.WriteString(m.applyStyle(historyStyle, help))

	return s.String()
}
