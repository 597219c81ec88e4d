package events

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"
)

// ScriptHost runs special handlers written in Lua. Each script fills the
// global "handlers" table, keyed by event title:
//
//	handlers["Fan Letter"] = function(ctx)
//	  if ctx.trainee == "Oguri Cap" then return 2 end
//	  return "skip"
//	end
//
// A number selects that choice, a string is passed on as a directive and
// nil leaves the event to the regular pipeline.
type ScriptHost struct {
	mu     sync.Mutex
	state  *lua.State
	titles map[string]string // normalized key -> raw table key
}

func NewScriptHost() *ScriptHost {
	l := lua.NewState()
	lua.OpenLibraries(l)
	l.NewTable()
	l.SetGlobal("handlers")
	return &ScriptHost{state: l, titles: make(map[string]string)}
}

// LoadDir runs every *.lua file in dir in name order.
func (h *ScriptHost) LoadDir(dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return fmt.Errorf("list lua scripts: %w", err)
	}
	sort.Strings(paths)
	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read lua script: %w", err)
		}
		if err := h.LoadString(string(src)); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

// LoadString runs one script and re-indexes the handlers table.
func (h *ScriptHost) LoadString(src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := lua.DoString(h.state, src); err != nil {
		return fmt.Errorf("run lua script: %w", err)
	}
	h.reindexLocked()
	return nil
}

func (h *ScriptHost) reindexLocked() {
	l := h.state
	l.Global("handlers")
	defer l.Pop(1)
	if !l.IsTable(-1) {
		return
	}
	l.PushNil()
	for l.Next(-2) {
		if raw, ok := l.ToString(-2); ok && l.IsFunction(-1) {
			h.titles[Normalize(raw)] = raw
		}
		l.Pop(1)
	}
}

// Titles returns the normalized keys with a scripted handler.
func (h *ScriptHost) Titles() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.titles))
	for k := range h.titles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Install registers a SpecialHandler for every scripted title.
func (h *ScriptHost) Install(reg *SpecialRegistry) {
	for _, key := range h.Titles() {
		reg.Register(key, h.handlerFor(key))
	}
}

func (h *ScriptHost) handlerFor(key string) SpecialHandler {
	return func(ctx HandlerContext) (Special, bool) {
		h.mu.Lock()
		defer h.mu.Unlock()
		raw, ok := h.titles[key]
		if !ok {
			return Special{}, false
		}

		l := h.state
		top := l.Top()
		defer l.SetTop(top)

		l.Global("handlers")
		l.Field(-1, raw)
		if !l.IsFunction(-1) {
			return Special{}, false
		}
		pushContext(l, ctx)
		if err := l.ProtectedCall(1, 1, 0); err != nil {
			log.Printf("[Event] Lua handler for %q failed: %v", raw, err)
			return Special{}, false
		}
		switch l.TypeOf(-1) {
		case lua.TypeNumber:
			n, _ := l.ToInteger(-1)
			return Special{Choice: n}, n > 0
		case lua.TypeString:
			s, _ := l.ToString(-1)
			s = strings.TrimSpace(s)
			return Special{Directive: s}, s != ""
		}
		return Special{}, false
	}
}

func pushContext(l *lua.State, ctx HandlerContext) {
	l.NewTable()
	l.PushString(ctx.Key)
	l.SetField(-2, "key")
	l.PushString(ctx.Title)
	l.SetField(-2, "title")
	if ctx.Config != nil {
		l.PushString(ctx.Config.Trainee)
		l.SetField(-2, "trainee")
		l.PushString(ctx.Config.Scenario)
		l.SetField(-2, "scenario")
		l.PushString(ctx.Config.Unity.TeamPreference)
		l.SetField(-2, "team_preference")
	}
}
