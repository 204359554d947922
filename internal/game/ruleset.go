package game

import "encoding/json"

// Ruleset selects the opening protocol of a round.
type Ruleset int

const (
	Uninitialized Ruleset = iota
	Freestyle
	SwapAfterFirstMove
	Swap2
)

type rulesetInfo struct {
	name        string
	description string
}

var rulesets = map[Ruleset]rulesetInfo{
	Uninitialized: {"uninitialized", "No opening rule has been chosen yet."},
	Freestyle: {"freestyle",
		"Black moves first and the players alternate. Five or more in a row wins."},
	SwapAfterFirstMove: {"swap_after_first_move",
		"Black places the first stone, then white decides whether to swap colours."},
	Swap2: {"swap2",
		"The first player places two black stones and one white stone. The second player " +
			"then swaps, stays, or places two more stones and passes the choice back."},
}

// ParseRuleset resolves a ruleset by its wire name.
func ParseRuleset(name string) (Ruleset, error) {
	for r, info := range rulesets {
		if info.name == name {
			return r, nil
		}
	}
	return Uninitialized, refine(ErrUnknownRuleset, "%q", name)
}

func (r Ruleset) String() string {
	if info, ok := rulesets[r]; ok {
		return info.name
	}
	return "invalid"
}

// Describe returns human readable text for the UI.
func (r Ruleset) Describe() string {
	return rulesets[r].description
}

func (r Ruleset) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Ruleset) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRuleset(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
