package game

import "encoding/json"

// SwapDecision records the answer to a pending colour swap.
type SwapDecision int

const (
	NoDecisionYet SwapDecision = iota
	DoSwap
	DoNotSwap
	DeferSwap
	DeferredDoSwap
	DeferredDoNotSwap
)

var swapDecisionNames = map[SwapDecision]string{
	NoDecisionYet:     "no_decision_yet",
	DoSwap:            "do_swap",
	DoNotSwap:         "do_not_swap",
	DeferSwap:         "defer_swap",
	DeferredDoSwap:    "deferred_do_swap",
	DeferredDoNotSwap: "deferred_do_not_swap",
}

// ParseSwapDecision resolves a decision by its wire name.
func ParseSwapDecision(name string) (SwapDecision, error) {
	for d, n := range swapDecisionNames {
		if n == name {
			return d, nil
		}
	}
	return NoDecisionYet, refine(ErrInvalidSwapDecision, "got %q", name)
}

func (d SwapDecision) String() string {
	if name, ok := swapDecisionNames[d]; ok {
		return name
	}
	return "invalid"
}

func (d SwapDecision) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *SwapDecision) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSwapDecision(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
