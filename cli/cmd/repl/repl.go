package repl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/linegen/lang"
	"github.com/ardnew/linegen/log"
)

// editDoneMsg is sent when the external editor returns.
type editDoneMsg struct {
	source    string
	cancelled bool
}

// editErrorMsg is sent when the edit process fails.
type editErrorMsg struct{ err error }

const (
	linePrompt  = "➜ "
	blockPrompt = "… "
	ctrlPrompt  = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help     Print this cruft
  show     Print the template source entered so far
  fmt      Print the source with canonical command spacing
  tree     Print the parsed template tree
  vars     List the bindings left by the last generation
  undo     Remove the last template line
  reset    Discard the template and its bindings
  edit     Edit the template in external $EDITOR
  clear    Clear screen
  quit     Exit REPL

Usage:
  Type template lines; each line prints the output it adds
  Output inside a block (///<<< ... ///>>>) appears once the block closes
  Completions appear in command lines (///) as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Esc to toggle between template and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeLine inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	session      *Session
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	candidates   []string      // backing candidate list
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int           // terminal width for ellipsization
	quitting     bool
	mode         inputMode
	lineText     string
	lineCursor   int
	ctrlText     string
	ctrlCursor   int
}

// Run starts the REPL. The template read from reader, if any, seeds the
// session and its output is printed first. vars are the initial bindings
// of every generation.
func Run(
	ctx context.Context,
	reader io.Reader,
	vars map[string]any,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cacheDir),
		slog.Bool("has_source", reader != nil),
	)

	session := NewSession(vars, nil, logger)

	if reader != nil {
		data, err := io.ReadAll(reader)
		if err != nil {
			return lang.ErrReadInput.Wrap(err)
		}

		res := session.Replace(ctx, string(data))
		fmt.Print(renderResult(res))
	}

	var historyPath string
	if cacheDir != "" {
		historyPath = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.String("error", err.Error()))
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	p := tea.NewProgram(newModel(ctx, session, history, logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	session *Session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(linePrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	m := model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    session,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeLine,
	}
	m.updatePrompt()

	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(linePrompt) - 2

		return m, nil

	case editDoneMsg:
		if msg.cancelled {
			return m, tea.Println(hintStyle.Render("🗴 edit cancelled"))
		}

		res := m.session.Replace(m.ctxFunc(), msg.source)
		m.updatePrompt()

		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("lines", m.session.Len()),
		)

		return m, tea.Sequence(
			tea.Println(resultStyle.Render("✔ template updated")),
			printResult(res),
		)

	case editErrorMsg:
		return m, tea.Println(
			errorStyle.Render("🗴 error: " + msg.err.Error()),
		)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	funcCall := detectFunctionCall(input, m.input.Position())

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render(m.emptyHint()))

	case funcCall.inCall && m.mode == modeLine:
		if sig, params := getSignature(funcCall.name); sig != "" {
			b.WriteString(renderSignatureHint(sig, params, funcCall.argIndex))
		} else if len(m.matches) > 0 {
			b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
		}

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) emptyHint() string {
	if m.mode == modeCtrl {
		return "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
	}

	if depth := m.session.Depth(); depth > 0 {
		return fmt.Sprintf("%d open block(s); output appears at ///>>>", depth)
	}

	return "Type a template line or press Esc for commands"
}

// updatePrompt selects the prompt for the current mode and block depth.
func (m *model) updatePrompt() {
	switch {
	case m.mode == modeCtrl:
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	case m.session.Depth() > 0:
		m.input.Prompt = promptStyle.Render(blockPrompt)
	default:
		m.input.Prompt = promptStyle.Render(linePrompt)
	}
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1)

	case tea.KeyShiftTab:
		return m.cycle(-1)

	case tea.KeyUp:
		return m.historyStep(-1, false)

	case tea.KeyDown:
		return m.historyStep(1, false)

	case tea.KeyShiftUp:
		return m.historyStep(-1, true)

	case tea.KeyShiftDown:
		return m.historyStep(1, true)

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		if m.mode == modeLine {
			return m.switchToMode(modeCtrl)
		}

		return m.switchToMode(modeLine)

	case tea.KeyRunes, tea.KeySpace:
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Any other key (backspace, delete, arrows, etc.) edits without
	// auto-confirming a completion.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping around.
func (m model) cycle(step int) (model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + len(m.matches)) % len(m.matches)
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also confirms the completion when exactly one
// candidate remains and the typed word already equals it.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	if m.input.Value()[m.wordStart:m.wordEnd] == candidate {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	raw := m.input.Value()

	m.lineText, m.lineCursor = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.input.SetValue("")
	m.matches = nil

	if m.mode == modeCtrl {
		input := strings.TrimSpace(raw)
		if input == "" {
			return m, nil
		}

		_ = m.history.Add(input, modeCtrl)
		m.historyIdx = m.history.Len()

		return m.executeCommand(input)
	}

	// Template lines are taken verbatim: leading whitespace is indentation
	// and an empty line is an empty output line.
	_ = m.history.Add(raw, modeLine)
	m.historyIdx = m.history.Len()

	res := m.session.Add(m.ctxFunc(), raw)
	m.updatePrompt()

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl line",
		slog.Int("output", len(res.Output)),
		slog.Int("errors", len(res.Errors)),
		slog.Int("depth", res.Depth),
	)

	prompt := linePrompt
	if res.Depth > 0 || m.session.Depth() > 0 {
		prompt = blockPrompt
	}

	return m, tea.Sequence(
		tea.Println(promptStyle.Render(prompt)+inputStyle.Render(raw)),
		printResult(res),
	)
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]

	echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))
	ctx := m.ctxFunc()

	m.logger.TraceContext(ctx, "repl command",
		slog.String("command", cmd),
		slog.Any("args", parts[1:]),
	)

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "s", "show":
		return m, tea.Sequence(echo, tea.Println(numbered(m.session.Lines())))

	case "f", "fmt":
		src, err := m.session.Format(ctx)
		if err != nil {
			return m, tea.Sequence(echo, tea.Println(errorStyle.Render("error: "+err.Error())))
		}

		return m, tea.Sequence(echo, tea.Println(strings.TrimSuffix(src, "\n")))

	case "t", "tree":
		return m, tea.Sequence(echo, tea.Println(strings.Join(m.session.Tree(ctx), "\n")))

	case "v", "vars":
		return m, tea.Sequence(echo, tea.Println(listBindings(m.session.Bindings())))

	case "u", "undo":
		if !m.session.Undo(ctx) {
			return m, tea.Sequence(echo, tea.Println(hintStyle.Render("nothing to undo")))
		}

		m.updatePrompt()

		return m, echo

	case "r", "reset":
		m.session.Reset()
		m.updatePrompt()

		return m, tea.Sequence(echo, tea.Println(hintStyle.Render("template discarded")))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.handleEdit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + cmd + " (try 'help')"),
		)
	}
}

func (m model) handleEdit() tea.Cmd {
	cmd := &editSourceCommand{
		source:  m.session.Source(),
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if err != nil {
			return editErrorMsg{err: err}
		}

		return editDoneMsg{source: cmd.edited, cancelled: cmd.cancelled}
	})
}

// historyStep moves through history by step. With sameMode, entries of the
// other mode are skipped; otherwise the mode follows the entry.
func (m model) historyStep(step int, sameMode bool) (model, tea.Cmd) {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil {
			break
		}

		if sameMode && entry.Mode != m.mode {
			continue
		}

		if entry.Mode != m.mode {
			m, _ = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		refreshMatches(&m, false)

		return m, nil
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m, nil
}

// switchToMode switches to the specified mode, preserving each mode's
// pending input.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	if m.mode == modeLine {
		m.lineText, m.lineCursor = m.input.Value(), m.input.Position()
	} else {
		m.ctrlText, m.ctrlCursor = m.input.Value(), m.input.Position()
	}

	m.mode = mode
	m.updatePrompt()

	if mode == modeLine {
		m.input.SetValue(m.lineText)
		m.input.SetCursor(m.lineCursor)
	} else {
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m, nil
}

// printResult prints generated output and diagnostics.
func printResult(res Result) tea.Cmd {
	text := strings.TrimSuffix(renderResult(res), "\n")
	if text == "" {
		return nil
	}

	return tea.Println(text)
}

func renderResult(res Result) string {
	var b strings.Builder

	for _, line := range res.Output {
		b.WriteString(resultStyle.Render(line) + "\n")
	}

	for _, msg := range res.Errors {
		b.WriteString(errorStyle.Render("error: "+msg) + "\n")
	}

	return b.String()
}

// numbered prefixes each line with its 1-based line number.
func numbered(lines []string) string {
	if len(lines) == 0 {
		return hintStyle.Render("(empty)")
	}

	width := len(strconv.Itoa(len(lines)))

	var b strings.Builder

	for i, line := range lines {
		fmt.Fprintf(&b, "%s %s\n", hintStyle.Render(fmt.Sprintf("%*d", width, i+1)), line)
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// listBindings renders each visible binding as "name = value".
func listBindings(env lang.Env) string {
	names := lang.Names(env)
	if len(names) == 0 {
		return hintStyle.Render("(no bindings)")
	}

	var b strings.Builder

	for _, name := range names {
		v, _ := env.Lookup(name)
		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render("= "+preview(v)))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// preview returns a short single-line rendering of v.
func preview(v lang.Value) string {
	s := strings.ReplaceAll(v.String(), "\n", `\n`)
	if v.Kind() == lang.KindString {
		s = strconv.Quote(v.String())
	}

	if utf8Len := len([]rune(s)); utf8Len > 40 {
		s = string([]rune(s)[:37]) + "..."
	}

	return s
}
