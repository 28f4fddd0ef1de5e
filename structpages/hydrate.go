package structpages

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/angelofallars/htmx-go"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jackielii/ctxkey"
)

const (
	// DefaultMountPath is where the hydrator answers guard mount requests.
	DefaultMountPath = "/_hydrate"
	// DefaultGuardTTL is how long an untouched guard is kept before Sweep discards it.
	DefaultGuardTTL = 10 * time.Minute
)

// HydrationState is the lifecycle state of a Guard: Pending until the browser has mounted
// the placeholder, Ready afterwards. There is no way back to Pending.
type HydrationState uint8

const (
	Pending HydrationState = iota
	Ready
)

func (s HydrationState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("HydrationState(%d)", uint8(s))
}

// Guard defers content that depends on the browser until the client has mounted it.
//
// While Pending, Render writes the fallback inside a placeholder element whose htmx load
// trigger requests the hydrator once the element is live in the page. That request flips
// the guard to Ready exactly once and answers with the children, which replace the
// placeholder. Renders of a Ready guard write the children directly.
type Guard struct {
	id       string
	mountURL string

	mu       sync.Mutex
	state    HydrationState
	children templ.Component
	fallback templ.Component
	touched  time.Time
}

// ID returns the instance id the guard is registered under.
func (g *Guard) ID() string { return g.id }

// ElementID returns the DOM id of the placeholder element.
func (g *Guard) ElementID() string { return "hg-" + g.id }

// State returns the current hydration state.
func (g *Guard) State() HydrationState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// SetChildren replaces the content shown once ready.
func (g *Guard) SetChildren(c templ.Component) {
	g.mu.Lock()
	g.children = c
	g.mu.Unlock()
}

// SetFallback replaces the content shown while pending.
func (g *Guard) SetFallback(c templ.Component) {
	g.mu.Lock()
	g.fallback = c
	g.mu.Unlock()
}

// Content returns the fallback while pending and the children once ready.
// Either may be nil, which renders nothing.
func (g *Guard) Content() templ.Component {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Ready {
		return g.children
	}
	return g.fallback
}

func (g *Guard) Render(ctx context.Context, w io.Writer) error {
	g.mu.Lock()
	state, content := g.state, g.fallback
	if state == Ready {
		content = g.children
	}
	g.mu.Unlock()

	if state == Ready {
		return renderContent(ctx, content, w)
	}
	if _, err := fmt.Fprintf(w, `<div id="%s" hx-get="%s" hx-trigger="load" hx-swap="outerHTML">`,
		templ.EscapeString(g.ElementID()), templ.EscapeString(g.mountURL)); err != nil {
		return err
	}
	if err := renderContent(ctx, content, w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</div>")
	return err
}

// markReady performs the one-shot transition and reports whether this call made it.
func (g *Guard) markReady(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touched = now
	if g.state == Ready {
		return false
	}
	g.state = Ready
	return true
}

func (g *Guard) lastTouched() (HydrationState, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.touched
}

func renderContent(ctx context.Context, c templ.Component, w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.Render(ctx, w)
}

// HydrationRecorder receives guard lifecycle events, e.g. for metrics.
type HydrationRecorder interface {
	GuardMounted()
	GuardReady()
	GuardDiscarded(reason string)
}

type noopHydrationRecorder struct{}

func (noopHydrationRecorder) GuardMounted()         {}
func (noopHydrationRecorder) GuardReady()           {}
func (noopHydrationRecorder) GuardDiscarded(string) {}

// Hydrator owns the live Guard instances and serves their mount requests.
type Hydrator struct {
	mountPath string
	ttl       time.Duration
	logger    *slog.Logger
	recorder  HydrationRecorder
	now       func() time.Time
	newID     func() string

	mu        sync.Mutex
	guards    map[string]*Guard
	scheduler gocron.Scheduler
}

// HydratorOption configures a Hydrator.
type HydratorOption func(*Hydrator)

// WithMountPath sets the URL prefix of mount requests. Defaults to DefaultMountPath.
func WithMountPath(path string) HydratorOption {
	return func(h *Hydrator) {
		h.mountPath = path
	}
}

// WithGuardTTL sets how long an untouched guard survives Sweep.
func WithGuardTTL(ttl time.Duration) HydratorOption {
	return func(h *Hydrator) {
		h.ttl = ttl
	}
}

// WithHydratorLogger sets the logger. Defaults to slog.Default().
func WithHydratorLogger(logger *slog.Logger) HydratorOption {
	return func(h *Hydrator) {
		h.logger = logger
	}
}

// WithHydrationRecorder sets the receiver of guard lifecycle events.
func WithHydrationRecorder(rec HydrationRecorder) HydratorOption {
	return func(h *Hydrator) {
		h.recorder = rec
	}
}

// NewHydrator creates a Hydrator.
func NewHydrator(opts ...HydratorOption) *Hydrator {
	h := &Hydrator{
		mountPath: DefaultMountPath,
		ttl:       DefaultGuardTTL,
		logger:    slog.Default(),
		recorder:  noopHydrationRecorder{},
		now:       time.Now,
		newID:     uuid.NewString,
		guards:    make(map[string]*Guard),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.mountPath = "/" + strings.Trim(h.mountPath, "/")
	if h.ttl <= 0 {
		h.ttl = DefaultGuardTTL
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.recorder == nil {
		h.recorder = noopHydrationRecorder{}
	}
	return h
}

// MountPath returns the URL prefix of mount requests.
func (h *Hydrator) MountPath() string { return h.mountPath }

// Guard creates and registers a fresh, pending guard instance.
func (h *Hydrator) Guard(children, fallback templ.Component) *Guard {
	id := h.newID()
	g := &Guard{
		id:       id,
		mountURL: h.mountPath + "/" + id,
		children: children,
		fallback: fallback,
		touched:  h.now(),
	}
	h.mu.Lock()
	h.guards[id] = g
	h.mu.Unlock()
	h.recorder.GuardMounted()
	return g
}

// Lookup returns the live guard registered under id.
func (h *Hydrator) Lookup(id string) (*Guard, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.guards[id]
	return g, ok
}

// Len returns the number of live guards.
func (h *Hydrator) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.guards)
}

// Mount runs the readiness effect of the guard registered under id. The first call flips
// the guard to Ready; later calls only return it. Unknown (unmounted) ids report false.
func (h *Hydrator) Mount(id string) (*Guard, bool) {
	// the transition happens under h.mu so a concurrent Unmount either precedes it, and the
	// effect is discarded, or follows it and finds the guard ready
	h.mu.Lock()
	g, ok := h.guards[id]
	ready := ok && g.markReady(h.now())
	h.mu.Unlock()
	if !ok {
		h.logger.Debug("hydration effect for unmounted guard", slog.String("guard_id", id))
		return nil, false
	}
	if ready {
		h.recorder.GuardReady()
		h.logger.Debug("guard ready", slog.String("guard_id", id))
	}
	return g, true
}

// Unmount removes the guard registered under id. A pending guard's transition is discarded.
func (h *Hydrator) Unmount(id string) bool {
	h.mu.Lock()
	g, ok := h.guards[id]
	delete(h.guards, id)
	pending := ok && g.State() == Pending
	h.mu.Unlock()
	if !ok {
		return false
	}
	if pending {
		h.recorder.GuardDiscarded("unmounted")
	}
	return true
}

// Sweep discards guards untouched for longer than the TTL and returns how many it removed.
func (h *Hydrator) Sweep(now time.Time) int {
	h.mu.Lock()
	var pending, removed int
	for id, g := range h.guards {
		state, touched := g.lastTouched()
		if now.Sub(touched) <= h.ttl {
			continue
		}
		delete(h.guards, id)
		removed++
		if state == Pending {
			pending++
		}
	}
	h.mu.Unlock()
	for range pending {
		h.recorder.GuardDiscarded("expired")
	}
	if removed > 0 {
		h.logger.Debug("swept guards", slog.Int("removed", removed), slog.Int("pending", pending))
	}
	return removed
}

// StartSweeper runs Sweep every interval until Stop is called.
func (h *Hydrator) StartSweeper(interval time.Duration) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create sweeper scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { h.Sweep(h.now()) }),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("schedule guard sweep: %w", err)
	}
	h.mu.Lock()
	h.scheduler = s
	h.mu.Unlock()
	s.Start()
	return nil
}

// Stop stops the sweeper started by StartSweeper.
func (h *Hydrator) Stop() error {
	h.mu.Lock()
	s := h.scheduler
	h.scheduler = nil
	h.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Shutdown()
}

// Register adds the mount endpoints to router.
func (h *Hydrator) Register(router Router) {
	router.HandleMethod(http.MethodGet, h.mountPath+"/{id}", h)
	router.HandleMethod(http.MethodDelete, h.mountPath+"/{id}", h)
}

// ServeHTTP answers GET with the guard's ready content and DELETE by unmounting it.
// A GET for a guard that is no longer mounted gets 204 and an htmx "swap none".
func (h *Hydrator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, h.mountPath+"/")
	if id == "" || id == r.URL.Path || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		g, ok := h.Mount(id)
		if !ok {
			_ = htmx.NewResponse().Reswap(htmx.SwapNone).StatusCode(http.StatusNoContent).Write(w)
			return
		}
		buf := getBuffer()
		defer releaseBuffer(buf)
		ctx := hydratorCtx.WithValue(r.Context(), h)
		if err := Render(ctx, g.Content(), buf); err != nil {
			h.logger.Error("render guard content", slog.String("guard_id", id), slog.String("error", err.Error()))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	case http.MethodDelete:
		h.Unmount(id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, DELETE")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

var hydratorCtx = ctxkey.New[*Hydrator]("structpages.hydrator", nil)

// Middleware makes h available to ClientOnly components rendered by the page.
func (h *Hydrator) Middleware(next http.Handler, _ *PageNode) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(hydratorCtx.WithValue(r.Context(), h)))
	})
}

// WithHydrator returns a copy of ctx carrying h.
func WithHydrator(ctx context.Context, h *Hydrator) context.Context {
	return hydratorCtx.WithValue(ctx, h)
}

// HydratorFromContext returns the hydrator set by Middleware or WithHydrator, or nil.
func HydratorFromContext(ctx context.Context) *Hydrator {
	return hydratorCtx.Value(ctx)
}

// ClientOnly renders children only after the browser has mounted the component, showing
// fallback (optional, default nothing) until then. Every render mounts a fresh guard.
// Without a hydrator in the context the fallback is rendered and never replaced.
func ClientOnly(children templ.Component, fallback ...templ.Component) templ.Component {
	var fb templ.Component
	if len(fallback) > 0 {
		fb = fallback[0]
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := hydratorCtx.Value(ctx)
		if h == nil {
			return renderContent(ctx, fb, w)
		}
		g := h.Guard(children, fb)
		if set := guardSetCtx.Value(ctx); set != nil {
			set.add(h, g.id)
		}
		return g.Render(ctx, w)
	})
}

// guardSet collects the guards mounted while rendering into a buffer that may still be
// thrown away. A placeholder that never reaches the browser can never be mounted, so its
// guard is unmounted together with the buffer.
type guardSet struct {
	mu     sync.Mutex
	guards []mountedGuard
}

type mountedGuard struct {
	h  *Hydrator
	id string
}

var guardSetCtx = ctxkey.New[*guardSet]("structpages.guardSet", nil)

func trackGuards(ctx context.Context) (context.Context, *guardSet) {
	set := &guardSet{}
	return guardSetCtx.WithValue(ctx, set), set
}

func (s *guardSet) add(h *Hydrator, id string) {
	s.mu.Lock()
	s.guards = append(s.guards, mountedGuard{h: h, id: id})
	s.mu.Unlock()
}

func (s *guardSet) take() []mountedGuard {
	s.mu.Lock()
	defer s.mu.Unlock()
	guards := s.guards
	s.guards = nil
	return guards
}

// discard unmounts every collected guard.
func (s *guardSet) discard() {
	for _, g := range s.take() {
		g.h.Unmount(g.id)
	}
}

// commit hands the collected guards to the enclosing set of ctx, which may still discard
// them. Without one the guards stay mounted.
func (s *guardSet) commit(ctx context.Context) {
	parent := guardSetCtx.Value(ctx)
	if parent == nil || parent == s {
		s.take()
		return
	}
	for _, g := range s.take() {
		parent.add(g.h, g.id)
	}
}

// Render renders c into w, which the caller discards when Render fails. Guards mounted by
// a failed render are unmounted, those of a successful one are kept.
func Render(ctx context.Context, c templ.Component, w io.Writer) error {
	tracked, set := trackGuards(ctx)
	if err := renderContent(tracked, c, w); err != nil {
		set.discard()
		return err
	}
	set.commit(ctx)
	return nil
}
