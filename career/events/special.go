package events

import (
	"log"
	"strings"
	"sync"

	"github.com/EmptyBox36/umamusume-auto-train/career"
)

// HandlerContext is what a special handler sees.
type HandlerContext struct {
	Key    string
	Title  string
	Config *career.PolicyConfig
}

// Special is a handler's verdict. A positive Choice selects that on-screen
// index; otherwise Directive names an action the actuator performs itself.
type Special struct {
	Choice    int
	Directive string
}

// SpecialHandler resolves one event. ok=false lets the pipeline continue.
type SpecialHandler func(ctx HandlerContext) (res Special, ok bool)

// SpecialRegistry maps normalized titles to handlers.
type SpecialRegistry struct {
	mu       sync.RWMutex
	handlers map[string]SpecialHandler
}

// NewSpecialRegistry returns a registry with the built-in handlers.
func NewSpecialRegistry() *SpecialRegistry {
	r := &SpecialRegistry{handlers: make(map[string]SpecialHandler)}
	r.Register("A Team at Last", unityTeamName)
	return r
}

// Register adds or replaces the handler for title.
func (r *SpecialRegistry) Register(title string, h SpecialHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[Normalize(title)] = h
}

func (r *SpecialRegistry) Get(key string) SpecialHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[key]
}

// Run invokes the handler for key, if any. A panicking handler counts as
// unresolved.
func (r *SpecialRegistry) Run(ctx HandlerContext) (res Special, ok bool) {
	h := r.Get(ctx.Key)
	if h == nil {
		return Special{}, false
	}
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[Event] Special handler for %q failed: %v", ctx.Key, p)
			res, ok = Special{}, false
		}
	}()
	return h(ctx)
}

// Count returns the number of registered handlers.
func (r *SpecialRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// unityTeamName names the Unity Cup team. The preference is read from
// config; anything other than sunny picks carrots.
func unityTeamName(ctx HandlerContext) (Special, bool) {
	team := "carrots"
	if ctx.Config != nil && strings.Contains(strings.ToLower(ctx.Config.Unity.TeamPreference), "sunny") {
		team = "sunny"
	}
	return Special{Directive: "unity_team:" + team}, true
}
