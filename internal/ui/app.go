package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/vitrine/internal/access"
	"github.com/abelbrown/vitrine/internal/catalog"
	"github.com/abelbrown/vitrine/internal/coord"
	"github.com/abelbrown/vitrine/internal/deeplink"
	"github.com/abelbrown/vitrine/internal/facets"
	"github.com/abelbrown/vitrine/internal/filter"
	"github.com/abelbrown/vitrine/internal/metrics"
	"github.com/abelbrown/vitrine/internal/otel"
	"github.com/abelbrown/vitrine/internal/overlay"
	"github.com/abelbrown/vitrine/internal/viewed"
)

// API is the catalog backend. *fetch.Client implements it.
type API interface {
	coord.PageSource
	deeplink.ItemSource
	facets.Source
}

// ObsConfig holds the observability dependencies. All optional.
type ObsConfig struct {
	Logger  *otel.Logger
	Ring    *otel.RingBuffer
	Metrics *metrics.Metrics
	// Breaker reports the circuit breaker state for the debug overlay.
	Breaker func() string
}

// AppConfig wires an App.
type AppConfig struct {
	API      API
	Location deeplink.Location
	Ledger   *viewed.Ledger
	Policy   access.Policy
	Filter   catalog.FilterKey

	PageSize int
	// PrefetchRows starts a load-more when the cursor is this close to the
	// end of the list.
	PrefetchRows int
	Timeout      time.Duration
	Wrap         bool
	// SearchDebounce is how long the search input must be idle before the
	// query is applied. Zero applies every keystroke.
	SearchDebounce time.Duration

	// SaveSession persists the current location and filter. Optional.
	SaveSession func(path string, key catalog.FilterKey) tea.Cmd

	Obs ObsConfig
}

// viewState is the mounted catalog view. Shared by pointer so the
// callbacks handed to the filter store, overlay and resolver always see the
// view currently on screen.
type viewState struct {
	scope  catalog.Scope
	coord  *coord.Coordinator
	policy access.Policy
}

func (v *viewState) basePath() string { return v.scope.BasePath() }

// visible is the rendered, openable part of the list.
func (v *viewState) visible() []catalog.Item {
	items, _ := v.policy.Partition(v.coord.Items())
	return items
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT perform I/O itself. Network calls run in the
// commands its components return and come back as messages.
type App struct {
	cfg    AppConfig
	api    API
	loc    deeplink.Location
	ledger *viewed.Ledger
	policy access.Policy
	obs    ObsConfig
	events otel.Emitter

	filter   *filter.Store
	view     *viewState
	overlay  *overlay.Controller
	resolver *deeplink.Resolver
	dir      facets.Directory

	keys      keyMap
	help      help.Model
	spinner   spinner.Model
	search    textinput.Model
	searching bool
	searchSeq int
	pathInput textinput.Model
	goingTo   bool

	cursor       int
	err          error
	notice       string
	width        int
	height       int
	ready        bool
	debugVisible bool

	savedPath string
	savedKey  catalog.FilterKey
}

// NewAppWithConfig creates an App. The view is chosen from the location's
// current path; an item path opens over the root catalog.
func NewAppWithConfig(cfg AppConfig) App {
	if cfg.Location == nil {
		cfg.Location = deeplink.NewMemoryLocation("/")
	}
	logger := cfg.Obs.Logger
	if cfg.Ledger == nil {
		cfg.Ledger = viewed.NewLedger(viewed.Options{Events: logger.For("viewed"), Metrics: cfg.Obs.Metrics})
	}

	ti := textinput.New()
	ti.Prompt = FilterBarPrompt.Render("/ ")
	ti.Placeholder = "search titles"
	ti.CharLimit = 120

	pi := textinput.New()
	pi.Prompt = FilterBarPrompt.Render("go to ")
	pi.Placeholder = "/item/<slug> or /category/<slug>"
	pi.CharLimit = 200

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(StatusBarKey))

	a := App{
		cfg:       cfg,
		api:       cfg.API,
		loc:       cfg.Location,
		ledger:    cfg.Ledger,
		policy:    cfg.Policy,
		obs:       cfg.Obs,
		events:    logger.For("ui"),
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		search:    ti,
		pathInput: pi,
		view:      &viewState{policy: cfg.Policy},
	}

	a.filter = filter.New(cfg.Filter, logger.For("filter"))
	view := a.view
	a.filter.Subscribe(func(k catalog.FilterKey) tea.Cmd {
		return view.coord.ResetAndFetchFirstPage(k)
	})

	scope, ok := catalog.ParseScope(a.loc.Path())
	if !ok {
		scope = catalog.Scope{}
	}
	a.view.scope = scope
	a.view.coord = a.newCoordinator(scope)

	ledger := a.ledger
	a.overlay = overlay.New(a.loc, overlay.Options{
		BasePath: view.basePath,
		Wrap:     cfg.Wrap,
		OnShow:   func(it catalog.Item) { ledger.MarkViewed(it.ID) },
		Events:   logger.For("overlay"),
	})
	a.resolver = deeplink.NewResolver(a.loc, a.overlay, a.api, deeplink.Options{
		BasePath: view.basePath,
		List:     view.visible,
		Timeout:  cfg.Timeout,
		Events:   logger.For("deeplink"),
		Metrics:  cfg.Obs.Metrics,
	})

	a.savedPath = a.loc.Path()
	a.savedKey = a.filter.Get()
	return a
}

// mountView replaces the current view with a fresh one for scope. The old
// view's cache is dropped with it. The first page is fetched by the
// returned command.
func (a *App) mountView(scope catalog.Scope) tea.Cmd {
	a.view.scope = scope
	a.view.coord = a.newCoordinator(scope)
	a.cursor = 0
	return a.view.coord.ResetAndFetchFirstPage(a.filter.Get())
}

func (a *App) newCoordinator(scope catalog.Scope) *coord.Coordinator {
	return coord.New(a.api, coord.Options{
		Scope:    scope,
		PageSize: a.cfg.PageSize,
		Timeout:  a.cfg.Timeout,
		Current:  a.filter.Get,
		Ledger:   a.ledger,
		Events:   a.cfg.Obs.Logger.For("coord"),
		Metrics:  a.cfg.Obs.Metrics,
	})
}

// Init starts the spinner, loads the tag directories and the first page, and
// resolves a deep link if the session started on one.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		facets.LoadCmd(a.api, a.cfg.Obs.Logger.For("facets")),
		a.view.coord.ResetAndFetchFirstPage(a.filter.Get()),
		a.resolver.Observe(),
	)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Msg: fmt.Sprintf("%T", msg)})
	}
	a, cmd := a.update(msg)
	if save := a.saveCmd(); save != nil {
		cmd = tea.Batch(cmd, save)
	}
	return a, cmd
}

func (a App) update(msg tea.Msg) (App, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.help.Width = msg.Width
		a.search.Width = msg.Width - 6
		a.pathInput.Width = msg.Width - 9
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case coord.PageLoaded:
		return a.handlePage(msg)

	case deeplink.ItemLoaded:
		return a.handleItem(msg)

	case facets.Loaded:
		a.dir = msg.Dir
		if len(msg.Errs) > 0 {
			a.notice = fmt.Sprintf("%d tag directories unavailable", len(msg.Errs))
		}
		return a, nil

	case LocationChanged:
		if msg.Path != "" && msg.Path != a.loc.Path() {
			a.loc.Push(msg.Path)
		}
		return a, a.followLocation()

	case searchSettled:
		if msg.seq != a.searchSeq {
			return a, nil
		}
		_, cmd := a.filter.Set(filter.WithQuery(msg.query))
		return a, cmd

	case SessionSaved:
		if msg.Err != nil {
			a.events.Error(otel.KindStoreError, msg.Err)
		}
		return a, nil
	}

	return a, nil
}

func (a App) handlePage(msg coord.PageLoaded) (App, tea.Cmd) {
	switch a.view.coord.Handle(msg) {
	case coord.OutcomeApplied:
		if msg.Purpose == coord.PurposeReset {
			a.cursor = 0
		}
		a.clampCursor()
		if a.overlay.IsOpen() {
			a.overlay.SetList(a.view.visible())
			a.syncCursor()
		}
	case coord.OutcomeFailed, coord.OutcomeRejected:
		a.clampCursor()
	}
	return a, nil
}

func (a App) handleItem(msg deeplink.ItemLoaded) (App, tea.Cmd) {
	switch a.resolver.Handle(msg) {
	case deeplink.OutcomeOpened:
		a.err = nil
		a.syncCursor()
	case deeplink.OutcomeNotFound:
		a.notice = fmt.Sprintf("%q is no longer available", msg.Slug)
	case deeplink.OutcomeFailed:
		a.err = fmt.Errorf("open %s: %w", msg.Slug, msg.Err)
	}
	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (App, tea.Cmd) {
	a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Msg: msg.String()})

	if a.searching {
		return a.handleSearchKey(msg)
	}
	if a.goingTo {
		return a.handleGotoKey(msg)
	}

	if a.debugVisible {
		switch {
		case key.Matches(msg, a.keys.Debug):
			a.debugVisible = false
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		}
		return a, nil
	}

	// Clear any existing error on key press
	a.err = nil
	a.notice = ""

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	case key.Matches(msg, a.keys.Debug):
		a.debugVisible = true
		return a, nil
	case key.Matches(msg, a.keys.Retry):
		return a, a.view.coord.Retry()
	case key.Matches(msg, a.keys.Back):
		return a, a.goBack()
	case key.Matches(msg, a.keys.Goto):
		a.goingTo = true
		a.pathInput.SetValue("")
		return a, a.pathInput.Focus()
	}

	if a.overlay.IsOpen() {
		return a.handleOverlayKey(msg)
	}

	n := len(a.rows())
	switch {
	case key.Matches(msg, a.keys.Down):
		if a.cursor < n-1 {
			a.cursor++
		}
		return a, a.maybeLoadMore(a.cursor)

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case key.Matches(msg, a.keys.Top):
		a.cursor = 0
		return a, nil

	case key.Matches(msg, a.keys.Bottom):
		if n > 0 {
			a.cursor = n - 1
		}
		return a, a.maybeLoadMore(a.cursor)

	case key.Matches(msg, a.keys.Open):
		a.openSelected()
		return a, nil

	case key.Matches(msg, a.keys.Search):
		a.searching = true
		a.search.SetValue(a.filter.Get().Query)
		a.search.CursorEnd()
		return a, a.search.Focus()

	case key.Matches(msg, a.keys.Platform):
		next := a.dir.NextPlatform(a.filter.Get().Platform)
		_, cmd := a.filter.Set(filter.WithPlatform(next))
		return a, cmd

	case key.Matches(msg, a.keys.Clear):
		_, cmd := a.filter.Reset()
		return a, cmd

	case key.Matches(msg, a.keys.View):
		return a, a.cycleView()

	case key.Matches(msg, a.keys.Home):
		return a, a.navigateTo(catalog.Scope{})
	}

	return a, nil
}

func (a App) handleOverlayKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Close):
		a.overlay.Close()
		return a, nil
	case key.Matches(msg, a.keys.Next), key.Matches(msg, a.keys.Down):
		if a.overlay.Next() {
			a.syncCursor()
		}
		// The navigation list may lead with a deep-linked item the view
		// lacks, so measure against the view's own rows.
		current, _ := a.overlay.Current()
		idx := catalog.IndexOf(a.view.coord.Items(), current.ID)
		if idx < 0 {
			return a, nil
		}
		return a, a.maybeLoadMore(idx)
	case key.Matches(msg, a.keys.Prev), key.Matches(msg, a.keys.Up):
		if a.overlay.Prev() {
			a.syncCursor()
		}
		return a, nil
	}
	return a, nil
}

// handleGotoKey edits the go-to prompt. Enter hands the path to the running
// session as a LocationChanged.
func (a App) handleGotoKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return a, tea.Quit
	case tea.KeyEsc:
		a.goingTo = false
		a.pathInput.Blur()
		return a, nil
	case tea.KeyEnter:
		a.goingTo = false
		a.pathInput.Blur()
		path := strings.TrimSpace(a.pathInput.Value())
		if path == "" {
			return a, nil
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return a, func() tea.Msg { return LocationChanged{Path: path} }
	}
	var cmd tea.Cmd
	a.pathInput, cmd = a.pathInput.Update(msg)
	return a, cmd
}

func (a App) handleSearchKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return a, tea.Quit
	case tea.KeyEsc:
		a.searching = false
		a.search.Blur()
		a.searchSeq++
		return a, nil
	case tea.KeyEnter:
		a.searching = false
		a.search.Blur()
		a.searchSeq++
		_, cmd := a.filter.Set(filter.WithQuery(a.search.Value()))
		return a, cmd
	}

	before := a.search.Value()
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	if a.search.Value() == before {
		return a, cmd
	}
	return a, tea.Batch(cmd, a.settleSearch())
}

// settleSearch schedules the current input to be applied once typing pauses.
func (a *App) settleSearch() tea.Cmd {
	a.searchSeq++
	settled := searchSettled{seq: a.searchSeq, query: a.search.Value()}
	if a.cfg.SearchDebounce <= 0 {
		return func() tea.Msg { return settled }
	}
	return tea.Tick(a.cfg.SearchDebounce, func(time.Time) tea.Msg { return settled })
}

// openSelected opens the row under the cursor. Locked rows stay closed.
func (a *App) openSelected() {
	rows := a.rows()
	if a.cursor < 0 || a.cursor >= len(rows) {
		return
	}
	r := rows[a.cursor]
	if r.locked {
		a.notice = "Upgrade your plan to open this item"
		return
	}
	a.overlay.Open(r.item, a.view.visible())
}

// maybeLoadMore fetches the next page once pos is within PrefetchRows of
// the end of the loaded list.
func (a *App) maybeLoadMore(pos int) tea.Cmd {
	c := a.view.coord
	if !c.HasMore() {
		return nil
	}
	if _, loading := c.Loading(); loading {
		return nil
	}
	if a.policy.IsRestricted && a.policy.VisibleItemLimit != access.Unbounded && c.Len() >= a.policy.VisibleItemLimit {
		return nil
	}
	if c.Len()-1-pos > a.cfg.PrefetchRows {
		return nil
	}
	return c.FetchNextPage()
}

// navigateTo makes scope the current view and points the location at it.
func (a *App) navigateTo(scope catalog.Scope) tea.Cmd {
	if a.overlay.IsOpen() {
		a.overlay.CloseFromLocation()
	}
	if path := scope.BasePath(); a.loc.Path() != path {
		a.loc.Push(path)
	}
	if scope == a.view.scope && a.view.coord.Loaded() {
		return nil
	}
	return a.mountView(scope)
}

// cycleView moves to the next navigational view in directory order.
func (a *App) cycleView() tea.Cmd {
	scopes := a.dir.Scopes()
	if len(scopes) == 0 {
		a.notice = "Tag directory not loaded yet"
		return nil
	}
	next := scopes[0]
	for i, s := range scopes {
		if s == a.view.scope {
			next = scopes[(i+1)%len(scopes)]
			break
		}
	}
	return a.navigateTo(next)
}

// followLocation reconciles the mounted view and the overlay with a location
// that changed outside the App's own navigation.
func (a *App) followLocation() tea.Cmd {
	path := a.loc.Path()
	var cmds []tea.Cmd
	if _, isItem := deeplink.ParseItemPath(path); !isItem {
		if scope, ok := catalog.ParseScope(path); ok && scope != a.view.scope {
			cmds = append(cmds, a.mountView(scope))
		}
	}
	cmds = append(cmds, a.resolver.Observe())
	return tea.Batch(cmds...)
}

// goBack steps the location history back, when the location keeps one.
func (a *App) goBack() tea.Cmd {
	hist, ok := a.loc.(interface{ Back() (string, bool) })
	if !ok {
		return nil
	}
	if _, ok := hist.Back(); !ok {
		a.notice = "Nothing to go back to"
		return nil
	}
	return a.followLocation()
}

// saveCmd returns the command persisting the session when the location or
// filter changed since the last save.
func (a *App) saveCmd() tea.Cmd {
	if a.cfg.SaveSession == nil {
		return nil
	}
	path, k := a.loc.Path(), a.filter.Get()
	if path == a.savedPath && k.Equal(a.savedKey) {
		return nil
	}
	a.savedPath, a.savedKey = path, k
	return a.cfg.SaveSession(path, k)
}

// rows builds the rendered list: visible items, then locked ones.
func (a App) rows() []row {
	visible, restricted := a.policy.Partition(a.view.coord.Items())
	out := make([]row, 0, len(visible)+len(restricted))
	for _, it := range visible {
		out = append(out, row{item: it, seen: a.ledger.Has(it.ID)})
	}
	for _, it := range restricted {
		out = append(out, row{item: it, locked: true})
	}
	return out
}

func (a *App) clampCursor() {
	n := len(a.rows())
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// syncCursor moves the list cursor onto the open item when it is listed.
func (a *App) syncCursor() {
	item, ok := a.overlay.Current()
	if !ok {
		return
	}
	if idx := catalog.IndexOf(a.view.visible(), item.ID); idx >= 0 {
		a.cursor = idx
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.debugVisible {
		info := debugInfo{Metrics: a.obs.Metrics}
		if a.obs.Breaker != nil {
			info.Breaker = a.obs.Breaker()
		}
		if slug, ok := a.resolver.Pending(); ok {
			info.Pending = "/item/" + slug
		}
		return debugOverlay(a.obs.Ring, info, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	header := a.renderHeader()

	var footer []string
	if a.searching {
		footer = append(footer, FilterBar.Width(a.width).Render(a.search.View()))
	}
	if a.goingTo {
		footer = append(footer, FilterBar.Width(a.width).Render(a.pathInput.View()))
	}
	if bar := a.renderErrorBar(); bar != "" {
		footer = append(footer, bar)
	}
	footer = append(footer, a.renderStatusBar(), HelpStyle.Render(a.help.View(a.keys)))
	footerStr := strings.Join(footer, "\n")

	bodyHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footerStr)
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	return header + "\n" + a.renderBody(bodyHeight) + "\n" + footerStr
}

func (a App) renderHeader() string {
	title := "All items"
	if s := a.view.scope; !s.IsRoot() {
		title = fmt.Sprintf("%s: %s", s.Facet, a.dir.Name(s.Facet, s.Slug))
	}
	k := a.filter.Get()
	meta := " platform:" + k.Platform
	if k.Query != "" {
		meta += fmt.Sprintf("  search:%q", k.Query)
	}
	if cur := a.view.coord.Cursor(); cur.Total > 0 {
		meta += fmt.Sprintf("  %d items", cur.Total)
	}
	line := HeaderBar.Render("vitrine · "+title) + HeaderMeta.Render(meta)
	if pad := a.width - lipgloss.Width(line); pad > 0 {
		line += HeaderMeta.Render(strings.Repeat(" ", pad))
	}
	return line
}

func (a App) renderBody(height int) string {
	if item, ok := a.overlay.Current(); ok {
		pos, total := a.overlay.Position()
		return renderDetail(item, pos, total, a.ledger.Has(item.ID), a.dir, a.width)
	}

	c := a.view.coord
	purpose, loading := c.Loading()
	if slug, ok := a.resolver.Pending(); ok {
		return a.spinner.View() + " Opening " + slug + "..."
	}
	rows := a.rows()
	if len(rows) == 0 {
		switch {
		case loading:
			return a.spinner.View() + " Loading catalog..."
		case c.Err() != nil:
			return ""
		default:
			return StatusBarText.Render("  No items match these filters.")
		}
	}

	if loading && purpose == coord.PurposeMore {
		return RenderList(rows, a.cursor, a.width, height-1) + "\n" + a.spinner.View() + " Loading more..."
	}
	if loading {
		return a.spinner.View() + " Refreshing...\n" + RenderList(rows, a.cursor, a.width, height-1)
	}
	return RenderList(rows, a.cursor, a.width, height)
}

func (a App) renderErrorBar() string {
	if err := a.view.coord.Err(); err != nil {
		msg := "Couldn't load items: " + describeError(err)
		if a.view.coord.CanRetry() {
			msg += " (r to retry)"
		}
		return ErrorStyle.Width(a.width).Render(msg)
	}
	if a.err != nil {
		return ErrorStyle.Width(a.width).Render("Error: " + a.err.Error() + " (press any key to dismiss)")
	}
	if a.notice != "" {
		return NoticeStyle.Width(a.width).Render(a.notice)
	}
	return ""
}

func (a App) renderStatusBar() string {
	rows := a.rows()
	parts := []string{}
	if len(rows) > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", a.cursor+1, len(rows)))
	}
	cur := a.view.coord.Cursor()
	if cur.LastPage > 0 {
		parts = append(parts, fmt.Sprintf("page %d/%d", cur.CurrentPage, cur.LastPage))
	}
	parts = append(parts, fmt.Sprintf("%d seen", a.ledger.Len()))
	if a.policy.IsRestricted {
		parts = append(parts, StatusBarKey.Render("free plan"))
	}
	return StatusBar.Width(a.width).Render(strings.Join(parts, StatusBarText.Render(" · ")))
}

// describeError maps catalog failures to short user-facing text.
func describeError(err error) string {
	switch catalog.KindOf(err) {
	case catalog.KindNetwork:
		return "network unavailable"
	case catalog.KindMalformed:
		return "unexpected response from server"
	case catalog.KindNotFound:
		return "not found"
	default:
		return err.Error()
	}
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Items returns the loaded items of the current view, locked ones included.
func (a App) Items() []catalog.Item {
	return a.view.coord.Items()
}

// Scope returns the mounted view.
func (a App) Scope() catalog.Scope {
	return a.view.scope
}

// Filter returns the active filter key.
func (a App) Filter() catalog.FilterKey {
	return a.filter.Get()
}

// Path returns the location's current path.
func (a App) Path() string {
	return a.loc.Path()
}

// Detail returns the item shown in the overlay, if open.
func (a App) Detail() (catalog.Item, bool) {
	return a.overlay.Current()
}

// Notice returns the current informational message.
func (a App) Notice() string {
	return a.notice
}
