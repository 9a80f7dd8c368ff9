// Package tui is the terminal front-end of the quote wizard. It follows the
// bubbletea model: the App holds the screen state, Update reacts to keys and
// command results, View renders the current page.
package tui

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"topglass/internal/domain/quote"
	"topglass/internal/pkg/logger"
)

// Option customizes App construction for tests and alternate runtimes.
type Option func(*App)

// WithContext sets the context passed to submissions.
func WithContext(ctx context.Context) Option {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(a *App) { a.log = logger.OrNop(log) }
}

// WithFileReader replaces os.ReadFile for attached photos.
func WithFileReader(fn func(path string) ([]byte, error)) Option {
	return func(a *App) {
		if fn != nil {
			a.readFile = fn
		}
	}
}

type submitDoneMsg struct {
	receipt *quote.Receipt
	err     error
}

// App is the wizard model.
type App struct {
	machine *quote.Machine
	ctx     context.Context
	log     *zap.Logger

	readFile    func(string) ([]byte, error)
	unsubscribe func()

	mu    sync.Mutex
	inbox []quote.Message

	fields        []field
	focus         int
	cursor        int // position inside a kindMulti field
	input         textinput.Model
	spinner       spinner.Model
	submitting    bool
	showErrors    bool
	otherLocation bool

	toast  *quote.Message
	status string
	width  int
}

// New creates the wizard around machine.
func New(machine *quote.Machine, opts ...Option) *App {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 256

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	a := &App{
		machine:  machine,
		ctx:      context.Background(),
		log:      zap.NewNop(),
		readFile: os.ReadFile,
		input:    in,
		spinner:  sp,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.unsubscribe = machine.Subscribe(func(m quote.Message) {
		a.mu.Lock()
		a.inbox = append(a.inbox, m)
		a.mu.Unlock()
	})
	a.rebuild(true)
	return a
}

// Close detaches the App from the machine messages.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil

	case spinner.TickMsg:
		if !a.submitting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case submitDoneMsg:
		a.submitting = false
		a.drainInbox()
		if msg.err != nil {
			a.log.Warn("quote submission failed", zap.Error(msg.err))
			if quote.IsValidationError(msg.err) {
				a.showErrors = true
			}
			a.rebuild(false)
			return a, nil
		}
		a.log.Info("quote submitted",
			zap.String("lead_id", msg.receipt.LeadID),
			zap.Int("uploaded", len(msg.receipt.UploadedPaths)),
			zap.Int("failed_uploads", msg.receipt.FailedUploads),
		)
		a.showErrors = false
		a.rebuild(true)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	if a.textFocused() {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "space" {
		key = " "
	}
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if a.submitting || a.machine.Phase() == quote.PhaseSubmitting {
		return a, nil
	}
	if a.machine.Phase() == quote.PhaseStep5 {
		switch key {
		case "q", "esc":
			return a, tea.Quit
		case "enter", "n":
			a.otherLocation = false
			a.act(a.machine.Reset())
		}
		return a, nil
	}

	switch key {
	case "tab", "down":
		a.moveFocus(1)
		return a, nil
	case "shift+tab", "up":
		a.moveFocus(-1)
		return a, nil
	case "esc":
		return a.back()
	case "enter":
		return a.enter()
	}

	f, ok := a.current()
	if !ok {
		return a, nil
	}
	switch f.kind {
	case kindChoice:
		switch key {
		case "left", "h":
			a.cycle(f, -1)
		case "right", "l", " ":
			a.cycle(f, 1)
		}
		return a, nil
	case kindMulti:
		switch key {
		case "left", "h":
			a.cursor = (a.cursor - 1 + len(f.options)) % len(f.options)
		case "right", "l":
			a.cursor = (a.cursor + 1) % len(f.options)
		case " ":
			a.apply(f, f.options[a.cursor].value)
		}
		return a, nil
	case kindToggle:
		if key == " " {
			a.apply(f, boolString(f.value(a.machine.Snapshot()) != "true"))
		}
		return a, nil
	case kindFile:
		if key == "ctrl+d" && f.clear != nil {
			a.report(f.clear())
			a.rebuild(false)
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if f.kind == kindText {
		a.apply(f, a.input.Value())
	}
	return a, cmd
}

// enter attaches a typed file path, otherwise runs the page action.
func (a *App) enter() (tea.Model, tea.Cmd) {
	if f, ok := a.current(); ok && f.kind == kindFile {
		if p := strings.TrimSpace(a.input.Value()); p != "" {
			err := f.apply(p)
			a.report(err)
			if err == nil {
				a.input.SetValue("")
			}
			a.rebuild(false)
			return a, nil
		}
	}
	a.blurCurrent()

	switch a.machine.Phase() {
	case quote.PhaseStep1:
		a.act(a.machine.OpenVehicleConfirmation())
	case quote.PhaseVehicleConfirmation:
		a.act(a.machine.ConfirmVehicle())
	case quote.PhaseStep2, quote.PhaseStep3:
		a.act(a.machine.Next())
	case quote.PhaseStep4:
		if len(a.machine.Errors()) > 0 {
			a.showErrors = true
			a.status = "Complétez les champs signalés."
			return a, nil
		}
		a.submitting = true
		a.status = ""
		return a, tea.Batch(a.spinner.Tick, a.submit())
	}
	return a, nil
}

func (a *App) back() (tea.Model, tea.Cmd) {
	a.blurCurrent()
	switch a.machine.Phase() {
	case quote.PhaseVehicleConfirmation:
		a.act(a.machine.DismissVehicleConfirmation())
	case quote.PhaseStep2, quote.PhaseStep3, quote.PhaseStep4:
		a.act(a.machine.Back())
	}
	return a, nil
}

func (a *App) submit() tea.Cmd {
	ctx, m := a.ctx, a.machine
	return func() tea.Msg {
		receipt, err := m.Submit(ctx)
		return submitDoneMsg{receipt: receipt, err: err}
	}
}

// act records the result of a page transition.
func (a *App) act(err error) {
	if err != nil {
		if quote.IsValidationError(err) {
			a.showErrors = true
			a.status = "Complétez les champs signalés."
		} else {
			a.status = err.Error()
		}
		a.rebuild(false)
		return
	}
	a.showErrors = false
	a.status = ""
	a.toast = nil
	a.rebuild(true)
}

func (a *App) apply(f field, v string) {
	a.report(f.apply(v))
	a.rebuild(false)
}

func (a *App) report(err error) {
	if err != nil {
		a.status = err.Error()
		return
	}
	a.status = ""
}

func (a *App) cycle(f field, delta int) {
	n := len(f.options)
	if n == 0 {
		return
	}
	i := f.index(a.machine.Snapshot())
	switch {
	case i < 0 && delta > 0:
		i = 0
	case i < 0:
		i = n - 1
	default:
		i = (i + delta + n) % n
	}
	a.apply(f, f.options[i].value)
}

func (a *App) moveFocus(delta int) {
	if len(a.fields) == 0 {
		return
	}
	a.blurCurrent()
	a.focus = (a.focus + delta + len(a.fields)) % len(a.fields)
	a.cursor = 0
	a.input.SetValue("")
	a.syncInput()
}

func (a *App) blurCurrent() {
	f, ok := a.current()
	if !ok || f.kind != kindText || f.blur == nil {
		return
	}
	a.report(f.blur())
	a.rebuild(false)
}

// rebuild recomputes the rows of the page. reset moves the focus back to
// the first row.
func (a *App) rebuild(reset bool) {
	a.fields = a.buildFields()
	if reset || a.focus >= len(a.fields) {
		a.focus = 0
		a.cursor = 0
		a.input.SetValue("")
	}
	a.syncInput()
}

// syncInput loads the focused text row into the shared input.
func (a *App) syncInput() {
	f, ok := a.current()
	if !ok {
		a.input.Blur()
		return
	}
	switch f.kind {
	case kindText:
		if v := f.value(a.machine.Snapshot()); v != a.input.Value() {
			a.input.SetValue(v)
		}
		a.input.Focus()
	case kindFile:
		a.input.Focus()
	default:
		a.input.Blur()
	}
}

func (a *App) current() (field, bool) {
	if a.focus < 0 || a.focus >= len(a.fields) {
		return field{}, false
	}
	return a.fields[a.focus], true
}

func (a *App) textFocused() bool {
	f, ok := a.current()
	return ok && (f.kind == kindText || f.kind == kindFile)
}

func (a *App) drainInbox() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.inbox); n > 0 {
		last := a.inbox[n-1]
		a.toast = &last
		a.inbox = nil
	}
}

func (a *App) loadFile(p string) (quote.BinaryFile, error) {
	p = strings.Trim(strings.TrimSpace(p), `'"`)
	if p == "" {
		return quote.BinaryFile{}, errors.New("chemin vide")
	}
	data, err := a.readFile(p)
	if err != nil {
		return quote.BinaryFile{}, err
	}
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return quote.BinaryFile{Name: filepath.Base(p), ContentType: ct, Data: data}, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
