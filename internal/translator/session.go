package translator

import (
	"net/http"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ElementRef is a structural, non-live locator: every element operation
// re-locates the node by (selector, index, using) rather than holding a
// handle (§3).
type ElementRef struct {
	Selector string
	Index    int
	Using    string
}

// ShadowRef resolves to a shadow root by walking to its host element first.
type ShadowRef struct {
	HostSelector string
	HostIndex    int
	HostUsing    string
}

// Timeouts mirrors the W3C timeouts object, in milliseconds.
type Timeouts struct {
	Script   int64
	PageLoad int64
	Implicit int64
}

// DefaultTimeouts matches the reference implementation's hardcoded defaults.
func DefaultTimeouts() Timeouts {
	return Timeouts{Script: 30000, PageLoad: 300000, Implicit: 0}
}

// Session is one active WebDriver session: the spawned application process,
// the Agent it embeds, and the reference tables scoped to it.
type Session struct {
	mu sync.RWMutex

	ID         string
	AgentURL   string
	BinaryPath string
	Process    *exec.Cmd
	HTTPClient *http.Client

	Timeouts Timeouts

	elements map[string]ElementRef
	shadows  map[string]ShadowRef
}

func newSession(id, agentURL, binaryPath string, proc *exec.Cmd) *Session {
	return &Session{
		ID:         id,
		AgentURL:   agentURL,
		BinaryPath: binaryPath,
		Process:    proc,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Timeouts:   DefaultTimeouts(),
		elements:   make(map[string]ElementRef),
		shadows:    make(map[string]ShadowRef),
	}
}

// storeElement returns the existing id for an equal (selector, index, using)
// triple, or allocates a new one. Identity is by tuple equality (§4.3).
func (s *Session) storeElement(ref ElementRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.elements {
		if existing == ref {
			return id
		}
	}
	id := uuid.NewString()
	s.elements[id] = ref
	return id
}

func (s *Session) resolveElement(id string) (ElementRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.elements[id]
	return ref, ok
}

// storeShadow returns the existing id for an equal host triple, or allocates
// a new one. Identity is keyed to the host element's structural triple,
// mirroring storeElement (§4.3).
func (s *Session) storeShadow(ref ShadowRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.shadows {
		if existing == ref {
			return id
		}
	}
	id := uuid.NewString()
	s.shadows[id] = ref
	return id
}

func (s *Session) resolveShadow(id string) (ShadowRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.shadows[id]
	return ref, ok
}

func (s *Session) getTimeouts() Timeouts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Timeouts
}

func (s *Session) setTimeouts(script, pageLoad, implicit *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if script != nil {
		s.Timeouts.Script = *script
	}
	if pageLoad != nil {
		s.Timeouts.PageLoad = *pageLoad
	}
	if implicit != nil {
		s.Timeouts.Implicit = *implicit
	}
}

// Registry owns every live session, guarded by a single RWMutex (§3, §5).
// Lookups extract a session pointer under the lock and release it before any
// Agent HTTP call proceeds, admitting cross-session parallelism while the
// Agent's own single web-view evaluation channel preserves per-session
// serialization.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
}

func NewRegistry(maxSessions int) *Registry {
	return &Registry{sessions: make(map[string]*Session), maxSessions: maxSessions}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) atCapacity() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxSessions > 0 && len(r.sessions) >= r.maxSessions
}

func (r *Registry) insert(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *Registry) get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) remove(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

// Shutdown kills every session's child process. Used on Translator shutdown.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.Process != nil && s.Process.Process != nil {
			_ = s.Process.Process.Kill()
		}
		delete(r.sessions, id)
	}
}
