package races

import "testing"

const sampleRaces = `{
  "Classic Year": {
    "Satsuki Sho": {"date": "Early Apr", "terrain": "Turf", "distance": {"type": "Medium", "meters": 2000},
                    "fans": {"required": 1500, "gained": 10000}, "grade": "G1"},
    "Spring Stakes": [
      {"date": "Late Mar", "terrain": "Turf", "distance": {"type": "Mile", "meters": 1800},
       "fans": {"required": 500, "gained": 3500}, "grade": "G2"},
      {"date": "Early Apr", "terrain": "Turf", "distance": {"type": "Mile", "meters": 1800},
       "fans": {"required": 500, "gained": 3500}, "grade": "G2"}
    ]
  }
}`

func TestCalendarLoadsSingleAndMultipleInstances(t *testing.T) {
	cal := NewCalendar()
	if err := cal.LoadFromJSON([]byte(sampleRaces)); err != nil {
		t.Fatalf("LoadFromJSON: %v", err)
	}
	if got := cal.Count(); got != 3 {
		t.Fatalf("Count: got %d, want 3", got)
	}
	window := cal.Window("Classic Year Early Apr")
	if len(window) != 2 {
		t.Fatalf("Early Apr window: got %d races, want 2", len(window))
	}
	if window[0].Name != "Satsuki Sho" || window[1].Name != "Spring Stakes" {
		t.Fatalf("window not sorted by name: %+v", window)
	}
	if got := cal.Lookup("Classic Year", "Spring Stakes"); len(got) != 2 {
		t.Fatalf("Lookup: got %d instances, want 2", len(got))
	}
}

func TestCalendarRejectsMalformed(t *testing.T) {
	if err := NewCalendar().LoadFromJSON([]byte(`{"Classic Year": {"X": 3}}`)); err == nil {
		t.Fatalf("expected error for non-object race entry")
	}
}
