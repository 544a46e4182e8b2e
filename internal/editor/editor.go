// Package editor is the terminal host for a notebook: it lays units out on a
// tcell screen, paints their rendered markup, and turns keys and mouse
// gestures into notebook operations.
package editor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"

	"github.com/Rancor38/Jot-Down/internal/config"
	"github.com/Rancor38/Jot-Down/internal/document"
	"github.com/Rancor38/Jot-Down/internal/logger"
	"github.com/Rancor38/Jot-Down/internal/notebook"
	"github.com/Rancor38/Jot-Down/internal/selection"
	"github.com/Rancor38/Jot-Down/internal/store"
	"github.com/Rancor38/Jot-Down/internal/textfield"
)

const (
	actionUndo           = "undo"
	actionRedo           = "redo"
	actionSelectAll      = "select_all"
	actionHardSave       = "hard_save"
	actionSaveAs         = "save_as"
	actionOpen           = "open"
	actionNew            = "new"
	actionCopy           = "copy"
	actionQuit           = "quit"
	actionHelp           = "help"
	actionEscape         = "escape"
	actionActivate       = "activate"
	actionSelectUp       = "select_up"
	actionSelectDown     = "select_down"
	actionDeleteSelected = "delete_selected"

	actionCommitInsert = "commit_insert"
	actionBackspace    = "backspace"
	actionDeleteChar   = "delete_char"
	actionPrevUnit     = "prev_unit"
	actionNextUnit     = "next_unit"
	actionMoveLeft     = "move_left"
	actionMoveRight    = "move_right"
	actionMoveUp       = "move_up"
	actionMoveDown     = "move_down"
	actionExtendLeft   = "extend_left"
	actionExtendRight  = "extend_right"
	actionLineStart    = "line_start"
	actionLineEnd      = "line_end"
	actionIndent       = "indent"
	actionPaste        = "paste"
	actionNewline      = "newline"

	actionBatchCommit = "batch_commit"
	actionBatchDelete = "batch_delete"
	actionBatchCancel = "batch_cancel"
)

type keymapSet struct {
	global map[string]string
	edit   map[string]string
	batch  map[string]string
}

type colors struct {
	heading     tcell.Color
	quote       tcell.Color
	link        tcell.Color
	codeFg      tcell.Color
	codeBg      tcell.Color
	markFg      tcell.Color
	markBg      tcell.Color
	placeholder tcell.Color
}

type Editor struct {
	nb     *notebook.Notebook
	keymap keymapSet
	colors colors

	tabWidth    int
	spacing     int
	placeholder string
	handle      rune
	exportPath  string

	filename        string
	gitBranch       string
	gitBranchSymbol string
	statusMessage   string

	// scroll is the index of the first unit on screen.
	scroll     int
	viewHeight int
	width      int
	// fieldOff is the horizontal scroll of the raw field, in cells.
	fieldOff    int
	batchScroll int
	lastEdited  int

	mouse  gesture
	prompt *prompt
	help   *helpView

	doubleClick time.Duration
	lastClickID document.ID
	lastClickAt time.Time
	now         func() time.Time

	styleMain      tcell.Style
	styleStatus    tcell.Style
	styleCommand   tcell.Style
	styleHandle    tcell.Style
	styleEditing   tcell.Style
	styleSelection tcell.Style
	styleSelecting tcell.Style
	styleDrop      tcell.Style
	styleBranch    tcell.Style

	clipboardRead  func() (string, error)
	clipboardWrite func(string) error
	actionHook     func(string)
}

func New(cfg config.Config, nb *notebook.Notebook) *Editor {
	tabWidth := cfg.Editor.TabWidth
	if tabWidth < 1 {
		tabWidth = 1
	}
	spacing := cfg.Editor.UnitSpacing
	if spacing < 0 {
		spacing = 0
	}
	handle := '⠿'
	if r := []rune(cfg.Editor.DragHandle); len(r) > 0 {
		handle = r[0]
	}
	mainFg := parseColor(cfg.Theme.Foreground, tcell.ColorWhite)
	mainBg := parseColor(cfg.Theme.Background, tcell.ColorBlack)
	statusFg := parseColor(cfg.Theme.StatuslineForeground, tcell.ColorBlack)
	statusBg := parseColor(cfg.Theme.StatuslineBackground, tcell.ColorGray)
	commandFg := parseColor(cfg.Theme.CommandlineForeground, statusFg)
	commandBg := parseColor(cfg.Theme.CommandlineBackground, statusBg)
	selectionFg := parseColor(cfg.Theme.SelectionForeground, mainFg)
	selectionBg := parseColor(cfg.Theme.SelectionBackground, tcell.ColorNavy)
	base := tcell.StyleDefault.Foreground(mainFg).Background(mainBg)

	return &Editor{
		nb: nb,
		keymap: keymapSet{
			global: copyKeys(cfg.Keymap.Global),
			edit:   copyKeys(cfg.Keymap.Edit),
			batch:  copyKeys(cfg.Keymap.Batch),
		},
		colors: colors{
			heading:     parseColor(cfg.Theme.HeadingForeground, mainFg),
			quote:       parseColor(cfg.Theme.QuoteForeground, tcell.ColorGray),
			link:        parseColor(cfg.Theme.LinkForeground, tcell.ColorBlue),
			codeFg:      parseColor(cfg.Theme.CodeForeground, mainFg),
			codeBg:      parseColor(cfg.Theme.CodeBackground, mainBg),
			markFg:      parseColor(cfg.Theme.MarkForeground, tcell.ColorBlack),
			markBg:      parseColor(cfg.Theme.MarkBackground, tcell.ColorYellow),
			placeholder: parseColor(cfg.Theme.PlaceholderForeground, tcell.ColorGray),
		},
		tabWidth:        tabWidth,
		spacing:         spacing,
		placeholder:     cfg.Editor.Placeholder,
		handle:          handle,
		exportPath:      cfg.Editor.ExportName,
		gitBranchSymbol: strings.TrimSpace(cfg.Editor.GitBranchSymbol),
		lastEdited:      -1,
		doubleClick:     cfg.Editor.DoubleClickInterval(),
		now:             time.Now,
		styleMain:       base,
		styleStatus:     tcell.StyleDefault.Foreground(statusFg).Background(statusBg),
		styleCommand:    tcell.StyleDefault.Foreground(commandFg).Background(commandBg),
		styleHandle:     base.Foreground(parseColor(cfg.Theme.HandleForeground, tcell.ColorGray)),
		styleEditing:    base.Background(parseColor(cfg.Theme.EditingBackground, mainBg)),
		styleSelection:  tcell.StyleDefault.Foreground(selectionFg).Background(selectionBg),
		styleSelecting:  base.Background(parseColor(cfg.Theme.SelectingBackground, selectionBg)),
		styleDrop:       base.Foreground(parseColor(cfg.Theme.DropForeground, tcell.ColorYellow)),
		styleBranch:     tcell.StyleDefault.Foreground(parseColor(cfg.Theme.BranchForeground, statusFg)).Background(statusBg),
		clipboardRead:   clipboard.ReadAll,
		clipboardWrite:  clipboard.WriteAll,
	}
}

func copyKeys(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (e *Editor) Notebook() *notebook.Notebook { return e.nb }

func (e *Editor) SetFile(name string)         { e.filename = name }
func (e *Editor) SetGitBranch(name string)    { e.gitBranch = name }
func (e *Editor) SetStatusMessage(msg string) { e.statusMessage = msg }
func (e *Editor) SetExportPath(path string)   { e.exportPath = path }
func (e *Editor) StatusMessage() string       { return e.statusMessage }
func (e *Editor) PromptActive() bool          { return e.prompt != nil }
func (e *Editor) HelpVisible() bool           { return e.help != nil }

// ViewState returns the scroll position and the index of the unit that was
// edited last, or -1.
func (e *Editor) ViewState() (scroll, unit int) {
	return e.scroll, e.lastEdited
}

// RestoreView applies a saved view state, clamped to the document.
func (e *Editor) RestoreView(scroll, unit int) {
	n := e.nb.Doc().Len()
	e.scroll = clampRange(scroll, 0, n-1)
	if unit >= 0 && unit < n {
		e.lastEdited = unit
	}
}

// ExternalChange offers to replace the document with text that another
// program wrote to the backing store.
func (e *Editor) ExternalChange(text string) {
	if text == e.nb.Text() {
		return
	}
	e.confirm("file changed on disk, reload? (y/n)", func() {
		e.nb.Reload(text)
		e.scroll = clampRange(e.scroll, 0, e.nb.Doc().Len()-1)
		e.setStatus("reloaded")
	})
}

// Settle runs the work that waits until the current state has been drawn:
// cursor focus for a newly opened field and a scheduled promotion to batch
// editing. It reports whether another draw is needed.
func (e *Editor) Settle() bool {
	redraw := false
	if f, ok := e.nb.TakeFocus(); ok {
		if idx := e.nb.Doc().IndexOf(f.ID); idx >= 0 {
			e.reveal(idx)
			e.lastEdited = idx
		}
		e.fieldOff = 0
		redraw = true
	}
	if e.nb.PendingPromotion() && !e.mouse.active() {
		e.nb.Promote()
		e.batchScroll = 0
		redraw = true
	}
	return redraw
}

// HandleKey dispatches one key event. It returns false when the user asked
// to quit.
func (e *Editor) HandleKey(ev *tcell.EventKey) bool {
	if e.prompt == nil && e.statusMessage != "" {
		e.statusMessage = ""
	}
	if e.help != nil {
		e.handleHelpKey(ev)
		return true
	}
	if e.prompt != nil {
		e.handlePromptKey(ev)
		return true
	}
	key := keyString(ev)
	if e.nb.Dragging() || e.nb.State().Drag.Active {
		if key == "esc" {
			e.nb.Escape()
			e.mouse = gesture{}
		}
		return true
	}

	switch e.nb.State().Kind {
	case selection.Editing:
		if action, ok := lookup(key, e.keymap.edit, e.keymap.global); ok {
			return e.execAction(action)
		}
		if printable(ev) {
			e.nb.Field().InsertRune(ev.Rune())
		}
	case selection.BatchEditing:
		if action, ok := lookup(key, e.keymap.batch, e.keymap.global); ok {
			return e.execAction(action)
		}
		if printable(ev) {
			e.nb.Field().InsertRune(ev.Rune())
		}
	default:
		if action, ok := e.keymap.global[key]; ok {
			return e.execAction(action)
		}
	}
	return true
}

func lookup(key string, maps ...map[string]string) (string, bool) {
	for _, m := range maps {
		if action, ok := m[key]; ok {
			return action, true
		}
	}
	return "", false
}

func (e *Editor) execAction(action string) bool {
	if e.actionHook != nil {
		e.actionHook(action)
	}
	field := e.nb.Field()
	kind := e.nb.State().Kind

	switch action {
	case actionQuit:
		e.settleEdits()
		return false
	case actionHelp:
		e.help = newHelpView(e.keymap)
	case actionEscape:
		e.nb.Escape()
	case actionUndo:
		e.settleEdits()
		if !e.nb.Undo() {
			e.setStatus("nothing to undo")
		}
		e.clampScroll()
	case actionRedo:
		e.settleEdits()
		if !e.nb.Redo() {
			e.setStatus("nothing to redo")
		}
		e.clampScroll()
	case actionSelectAll:
		if kind == selection.BatchEditing {
			field.SelectAll()
			break
		}
		e.report(e.nb.SelectAll())
	case actionHardSave:
		if err := e.nb.HardSave(context.Background()); err != nil {
			e.fail("save", err)
		} else {
			e.setStatus("saved")
		}
	case actionSaveAs:
		e.saveAs()
	case actionOpen:
		e.ask("open: ", "", e.open)
	case actionNew:
		e.newDocument()
	case actionCopy:
		e.copySelection()
	case actionActivate:
		e.activate()
	case actionSelectUp:
		e.selectNeighbor(-1)
	case actionSelectDown:
		e.selectNeighbor(1)
	case actionDeleteSelected:
		if kind == selection.Selected {
			e.report(e.nb.BatchDelete())
			e.clampScroll()
		}

	case actionCommitInsert:
		e.report(e.nb.Enter())
	case actionBackspace:
		if kind == selection.Editing && field.Empty() {
			e.nb.DeleteEmpty()
		} else if field != nil {
			field.Backspace()
		}
	case actionDeleteChar:
		if kind == selection.Editing && field.Empty() {
			e.nb.DeleteEmpty()
		} else if field != nil {
			field.Delete()
		}
	case actionPrevUnit:
		_, err := e.nb.NavigatePrev()
		e.report(err)
	case actionNextUnit:
		_, err := e.nb.NavigateNext()
		e.report(err)
	case actionMoveLeft:
		if kind == selection.Editing && field.AtStart() && !field.HasSelection() {
			_, err := e.nb.NavigatePrev()
			e.report(err)
		} else if field != nil {
			field.Left(false)
		}
	case actionMoveRight:
		if kind == selection.Editing && field.AtEnd() && !field.HasSelection() {
			_, err := e.nb.NavigateNext()
			e.report(err)
		} else if field != nil {
			field.Right(false)
		}
	case actionMoveUp:
		if field != nil {
			field.Up(false)
		}
	case actionMoveDown:
		if field != nil {
			field.Down(false)
		}
	case actionExtendLeft:
		if field != nil {
			field.Left(true)
		}
	case actionExtendRight:
		if field != nil {
			field.Right(true)
		}
	case actionLineStart:
		if field != nil {
			field.Home(false)
		}
	case actionLineEnd:
		if field != nil {
			field.End(false)
		}
	case actionIndent:
		if field != nil {
			field.Insert(strings.Repeat(" ", e.tabWidth))
		}
	case actionNewline:
		if field != nil {
			field.InsertRune('\n')
		}
	case actionPaste:
		e.paste()

	case actionBatchCommit:
		e.report(e.nb.BatchCommit())
		e.clampScroll()
	case actionBatchDelete:
		e.report(e.nb.BatchDelete())
		e.clampScroll()
	case actionBatchCancel:
		e.nb.BatchCancel()

	default:
		if field != nil && field.Apply(textfield.Format(action)) {
			break
		}
		logger.Debug("unknown action", "action", action)
	}
	return true
}

// settleEdits commits whatever buffer is open so its text reaches the
// document before a whole-document action.
func (e *Editor) settleEdits() {
	switch e.nb.State().Kind {
	case selection.Editing:
		e.report(e.nb.CommitEdit())
	case selection.BatchEditing:
		e.report(e.nb.BatchCommit())
	}
}

func (e *Editor) activate() {
	doc := e.nb.Doc()
	switch e.nb.State().Kind {
	case selection.Selected:
		e.nb.Activate()
		e.batchScroll = 0
	case selection.Idle:
		idx := e.lastEdited
		if idx < 0 || idx >= doc.Len() {
			idx = doc.Len() - 1
		}
		e.report(e.nb.Edit(doc.Unit(idx).ID, notebook.AtEnd))
	}
}

// selectNeighbor moves a single selection one unit up or down, starting
// from the first or last unit when nothing is selected.
func (e *Editor) selectNeighbor(dir int) {
	doc := e.nb.Doc()
	var target document.ID
	switch ids := e.nb.Selected(); {
	case len(ids) == 0:
		if dir < 0 {
			target = doc.Unit(doc.Len() - 1).ID
		} else {
			target = doc.Unit(0).ID
		}
	default:
		from := ids[0]
		step := doc.Prev
		if dir > 0 {
			from = ids[len(ids)-1]
			step = doc.Next
		}
		next, ok := step(from)
		if !ok {
			next = from
		}
		target = next
	}
	e.nb.Escape()
	e.report(e.nb.Click(selection.OnUnit, target, selection.ModToggle))
	e.reveal(doc.IndexOf(target))
}

func (e *Editor) saveAs() {
	path := e.exportPath
	if path == "" {
		path = "notes.md"
	}
	err := e.nb.SaveAs(func(text string) error {
		return store.Export(path, text)
	})
	if err != nil {
		e.fail("export", err)
		return
	}
	e.setStatus("exported " + filepath.Base(path))
}

func (e *Editor) open(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	text, err := store.Import(path)
	if err != nil {
		if errors.Is(err, store.ErrNotMarkdown) {
			e.setStatus("only .md files can be opened")
			return
		}
		e.fail("import", err)
		return
	}
	e.nb.Import(text)
	e.scroll = 0
	e.lastEdited = -1
	e.setStatus("opened " + filepath.Base(path))
}

func (e *Editor) newDocument() {
	err := e.nb.NewDocument(false)
	if errors.Is(err, notebook.ErrUnsavedChanges) {
		e.confirm("discard unsaved changes? (y/n)", func() {
			e.report(e.nb.NewDocument(true))
			e.scroll = 0
			e.lastEdited = -1
		})
		return
	}
	e.report(err)
	e.scroll = 0
	e.lastEdited = -1
}

func (e *Editor) copySelection() {
	var text string
	count := 0
	if f := e.nb.Field(); f != nil && f.HasSelection() {
		text = f.SelectedText()
	} else if ids := e.nb.Selected(); len(ids) > 0 {
		text = e.nb.SelectedText()
		count = len(ids)
	}
	if text == "" {
		return
	}
	if err := e.clipboardWrite(text); err != nil {
		e.setStatus("clipboard: " + err.Error())
		return
	}
	if count > 0 {
		e.setStatus(fmt.Sprintf("copied %d units", count))
	} else {
		e.setStatus("copied")
	}
}

func (e *Editor) paste() {
	field := e.nb.Field()
	if field == nil {
		return
	}
	text, err := e.clipboardRead()
	if err != nil {
		e.setStatus("clipboard: " + err.Error())
		return
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if e.nb.State().Kind == selection.Editing {
		// A unit is one line.
		text = strings.ReplaceAll(text, "\n", " ")
	}
	field.Insert(text)
}

func (e *Editor) setStatus(msg string) {
	e.statusMessage = msg
}

// report shows err on the status line. Errors reaching the host are stale
// ids or persistence failures; neither stops the session.
func (e *Editor) report(err error) {
	if err == nil {
		return
	}
	logger.Warn("operation failed", "err", err)
	e.setStatus(err.Error())
}

func (e *Editor) fail(op string, err error) {
	logger.Error("persistence failure", "op", op, "err", err)
	e.setStatus(op + " failed: " + err.Error())
}

// Render draws the whole screen.
func (e *Editor) Render(s tcell.Screen) {
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}
	e.width = w
	viewHeight := h - 2
	if viewHeight < 0 {
		viewHeight = 0
	}
	e.viewHeight = viewHeight

	s.SetStyle(e.styleMain)
	s.Clear()

	cx, cy, cursor := e.renderUnits(s, w, viewHeight)
	if e.nb.State().Kind == selection.BatchEditing {
		cx, cy, cursor = e.renderBatch(s, w, viewHeight)
	}
	if h >= 2 {
		e.renderStatusline(s, w, h-2)
	}
	if px, ok := e.renderCommandline(s, w, h-1); ok {
		cx, cy, cursor = px, h-1, true
	}
	if e.help != nil {
		e.help.render(s, w, viewHeight, e.styleStatus, e.styleCommand)
		cursor = false
	}

	if !cursor || cx >= w {
		s.HideCursor()
	} else {
		s.SetCursorStyle(tcell.CursorStyleSteadyBar)
		s.ShowCursor(cx, cy)
	}
	s.Show()
}

func (e *Editor) modeName() string {
	if e.nb.Dragging() {
		return "DRAG"
	}
	st := e.nb.State()
	if st.Drag.Active {
		return "SELECT"
	}
	switch st.Kind {
	case selection.Editing:
		return "EDIT"
	case selection.Selected:
		return "SELECT"
	case selection.BatchEditing:
		return "BATCH"
	}
	return "IDLE"
}

// position describes where the user is: the edited unit, the selection
// size, or the document length.
func (e *Editor) position() string {
	doc := e.nb.Doc()
	st := e.nb.State()
	switch st.Kind {
	case selection.Editing:
		return fmt.Sprintf("unit %d/%d", doc.IndexOf(st.Editing)+1, doc.Len())
	case selection.Selected, selection.BatchEditing:
		return fmt.Sprintf("%d selected", len(e.nb.Selected()))
	}
	return fmt.Sprintf("%d units", doc.Len())
}

func (e *Editor) renderStatusline(s tcell.Screen, w, y int) {
	name := e.filename
	if name == "" {
		name = "[No Name]"
	} else {
		name = filepath.Base(name)
	}
	dirty := ""
	if e.nb.Dirty() {
		dirty = "*"
	}
	status := fmt.Sprintf(" %s | %s%s ", e.modeName(), name, dirty)
	if e.statusMessage != "" && e.prompt == nil {
		status = fmt.Sprintf(" %s | %s%s | %s ", e.modeName(), name, dirty, e.statusMessage)
	}
	right := " " + e.position() + " "
	branch := ""
	if e.gitBranch != "" {
		branch = formatGitBranch(e.gitBranchSymbol, e.gitBranch) + " "
		right += "| "
	}

	line := composeStatusLine(status, right+branch, w)
	branchStart := len(line) - len([]rune(branch))
	for x, r := range line {
		st := e.styleStatus
		if branch != "" && x >= branchStart {
			st = e.styleBranch
		}
		s.SetContent(x, y, r, nil, st)
	}
}

func clearLine(s tcell.Screen, y, w int, style tcell.Style) {
	for x := 0; x < w; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

func composeStatusLine(left, right string, width int) []rune {
	if width <= 0 {
		return nil
	}
	leftRunes := []rune(left)
	rightRunes := []rune(right)
	if len(leftRunes)+len(rightRunes) > width {
		if len(rightRunes) >= width {
			rightRunes = rightRunes[len(rightRunes)-width:]
			leftRunes = nil
		} else {
			leftRunes = leftRunes[:width-len(rightRunes)]
		}
	}
	line := make([]rune, 0, width)
	line = append(line, leftRunes...)
	for len(line) < width-len(rightRunes) {
		line = append(line, ' ')
	}
	return append(line, rightRunes...)
}

func formatGitBranch(symbol, branch string) string {
	if symbol == "" {
		symbol = "git:"
	}
	if strings.HasSuffix(symbol, ":") || strings.HasSuffix(symbol, " ") {
		return symbol + branch
	}
	return symbol + " " + branch
}

func parseColor(name string, fallback tcell.Color) tcell.Color {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "":
		return fallback
	case "default":
		return tcell.ColorDefault
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return fallback
	}
	return c
}

func clampRange(value, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
