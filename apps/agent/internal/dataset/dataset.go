package dataset

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/EmptyBox36/umamusume-auto-train/career"
	"github.com/EmptyBox36/umamusume-auto-train/career/brain"
	"github.com/EmptyBox36/umamusume-auto-train/career/events"
	"github.com/EmptyBox36/umamusume-auto-train/career/races"

	"golang.org/x/crypto/blake2b"
)

// Files names every static input the agent decides from. Empty paths are
// skipped.
type Files struct {
	PolicyConfig    string
	SupportEvents   string
	CharacterEvents string
	ScenarioEvents  string
	Races           string
	ScriptsDir      string
}

// Bundle is the read-only data shared by every session.
type Bundle struct {
	Policy   *career.PolicyConfig
	Events   *events.Database
	Calendar *races.Calendar
	Special  *events.SpecialRegistry
	// Digest fingerprints the loaded inputs so journal entries can be tied
	// to the data that produced them.
	Digest string
}

// Load reads and indexes all inputs named by f.
func Load(f Files) (*Bundle, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	read := func(kind, path string) ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", kind, err)
		}
		h.Write([]byte(kind))
		h.Write([]byte{0})
		h.Write(data)
		return data, nil
	}

	cfg := career.DefaultConfig()
	policy := &cfg
	if f.PolicyConfig != "" {
		data, err := read("policy", f.PolicyConfig)
		if err != nil {
			return nil, err
		}
		format := career.FormatJSON
		if ext := strings.ToLower(filepath.Ext(f.PolicyConfig)); ext == ".yaml" || ext == ".yml" {
			format = career.FormatYAML
		}
		if policy, err = career.ParseConfig(data, format); err != nil {
			return nil, err
		}
	}

	db := events.NewDatabase(policy.Trainee)
	for _, src := range []struct {
		path string
		kind events.Source
	}{
		{f.SupportEvents, events.SourceSupport},
		{f.CharacterEvents, events.SourceCharacter},
		{f.ScenarioEvents, events.SourceScenario},
	} {
		if src.path == "" {
			continue
		}
		data, err := read(src.kind.String()+" events", src.path)
		if err != nil {
			return nil, err
		}
		if err := db.LoadFromJSON(data, src.kind); err != nil {
			return nil, fmt.Errorf("%s events: %w", src.kind, err)
		}
	}

	calendar := races.NewCalendar()
	if f.Races != "" {
		data, err := read("races", f.Races)
		if err != nil {
			return nil, err
		}
		if err := calendar.LoadFromJSON(data); err != nil {
			return nil, fmt.Errorf("races: %w", err)
		}
	}

	special := events.NewSpecialRegistry()
	if f.ScriptsDir != "" {
		host := events.NewScriptHost()
		if err := host.LoadDir(f.ScriptsDir); err != nil {
			return nil, fmt.Errorf("scripts: %w", err)
		}
		host.Install(special)
		for _, title := range host.Titles() {
			h.Write([]byte("script\x00" + title))
		}
	}

	b := &Bundle{
		Policy:   policy,
		Events:   db,
		Calendar: calendar,
		Special:  special,
		Digest:   hex.EncodeToString(h.Sum(nil)[:16]),
	}
	log.Printf("[Dataset] Loaded %d events, %d races, %d special handlers (digest %s)",
		db.Count(), calendar.Count(), special.Count(), b.Digest)
	return b, nil
}

// NewPolicy builds a fresh per-career policy over the bundle.
func (b *Bundle) NewPolicy() *brain.Policy {
	return brain.New(b.Policy, b.Events, b.Calendar, b.Special)
}
