package races

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Entry is one scheduled running of a race.
type Entry struct {
	Name      string   `json:"name"`
	Year      string   `json:"year"`
	Date      string   `json:"date"`
	Racetrack string   `json:"racetrack,omitempty"`
	Terrain   string   `json:"terrain"`
	Distance  Distance `json:"distance"`
	Fans      Fans     `json:"fans"`
	Grade     string   `json:"grade"`
	Turn      int      `json:"turn,omitempty"`
	Sparks    []string `json:"sparks,omitempty"`
}

type Distance struct {
	Type   string `json:"type"`
	Meters int    `json:"meters"`
}

type Fans struct {
	Required int `json:"required"`
	Gained   int `json:"gained"`
}

// Key is the "<year bucket> <date window>" lookup key.
func (e Entry) Key() string { return e.Year + " " + e.Date }

// Calendar indexes races by year bucket and by date window.
type Calendar struct {
	mu       sync.RWMutex
	byYear   map[string]map[string][]Entry
	byWindow map[string][]Entry
}

func NewCalendar() *Calendar {
	return &Calendar{
		byYear:   make(map[string]map[string][]Entry),
		byWindow: make(map[string][]Entry),
	}
}

// LoadFromFile loads a races dataset from a JSON file.
func (c *Calendar) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read races file: %w", err)
	}
	return c.LoadFromJSON(data)
}

// LoadFromJSON accepts year bucket → race name → entry, where the entry may
// be a single object or a list of scheduled instances.
func (c *Calendar) LoadFromJSON(data []byte) error {
	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse races JSON: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for year, races := range raw {
		for name, msg := range races {
			entries, err := decodeEntries(msg)
			if err != nil {
				return fmt.Errorf("race %q: %w", name, err)
			}
			for _, e := range entries {
				e.Name = name
				e.Year = year
				c.addLocked(e)
			}
		}
	}
	return nil
}

func decodeEntries(msg json.RawMessage) ([]Entry, error) {
	trimmed := strings.TrimSpace(string(msg))
	if strings.HasPrefix(trimmed, "[") {
		var list []Entry
		if err := json.Unmarshal(msg, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var one Entry
	if err := json.Unmarshal(msg, &one); err != nil {
		return nil, err
	}
	return []Entry{one}, nil
}

// Add registers a single entry.
func (c *Calendar) Add(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addLocked(e)
}

func (c *Calendar) addLocked(e Entry) {
	if c.byYear[e.Year] == nil {
		c.byYear[e.Year] = make(map[string][]Entry)
	}
	c.byYear[e.Year][e.Name] = append(c.byYear[e.Year][e.Name], e)
	c.byWindow[e.Key()] = append(c.byWindow[e.Key()], e)
}

// Window returns the races held at the given "<year> <date>" key, sorted by
// name for stable iteration.
func (c *Calendar) Window(key string) []Entry {
	c.mu.RLock()
	src := c.byWindow[key]
	out := make([]Entry, len(src))
	copy(out, src)
	c.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns every scheduled instance of a race in a year bucket.
func (c *Calendar) Lookup(year, name string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src := c.byYear[year][name]
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// Count returns the number of scheduled instances.
func (c *Calendar) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, list := range c.byWindow {
		n += len(list)
	}
	return n
}
