package prize

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults is the built-in machine, used when nothing has been saved.
func Defaults() []Item {
	return []Item{
		{Id: "1", Name: "Molly: Space Guardian", Visual: Symbol{Code: "👩‍🚀"}, Color: 0x4F46E5},
		{Id: "2", Name: "Skullpanda: The Warmth", Visual: Symbol{Code: "🧸"}, Color: 0x27272A},
		{Id: "3", Name: "Dimoo: Cloud Walker", Visual: Symbol{Code: "☁️"}, Color: 0x0891B2},
		{Id: "4", Name: "Hirono: Little Mischief", Visual: Symbol{Code: "👺"}, Color: 0x9A3412},
		{Id: "5", Name: "Labubu: The Monsters", Visual: Symbol{Code: "🧛"}, Color: 0x881337},
	}
}

type PrizeJSON struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Color  string `json:"color"` // "#RRGGBB"
}

// LoadDefaultsFromJSON reads a replacement default machine from path.
func LoadDefaultsFromJSON(path string) ([]Item, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var arr []PrizeJSON
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("prize list is empty")
	}

	seenId := map[string]bool{}
	out := make([]Item, 0, len(arr))
	for i, pj := range arr {
		if pj.Id == "" {
			return nil, fmt.Errorf("missing id at index %d", i)
		}
		if seenId[pj.Id] {
			return nil, fmt.Errorf("duplicate id %q", pj.Id)
		}
		seenId[pj.Id] = true

		if strings.TrimSpace(pj.Name) == "" {
			return nil, fmt.Errorf("missing name for id %q", pj.Id)
		}

		var visual Visual = DefaultSymbol
		if pj.Symbol != "" {
			visual = Symbol{Code: pj.Symbol}
		}

		color, err := parseColor(pj.Color)
		if err != nil {
			return nil, fmt.Errorf("bad color for id %q: %w", pj.Id, err)
		}

		out = append(out, Item{Id: pj.Id, Name: pj.Name, Visual: visual, Color: color})
	}

	return out, nil
}

func parseColor(s string) (int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 0xFFFFFF {
		return 0, fmt.Errorf("color %q out of range", s)
	}
	return int(n), nil
}
