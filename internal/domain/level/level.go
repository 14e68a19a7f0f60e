package level

import "fmt"

type Level struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Order int    `json:"order"`
}

var levels = []Level{
	{Value: "Intermédiaire", Label: "Intermédiaire", Order: 1},
	{Value: "Avancé", Label: "Avancé", Order: 2},
	{Value: "Expert", Label: "Expert", Order: 3},
}

// Default is assigned to categories created without a level.
const Default = "Intermédiaire"

// All returns the known levels sorted by order.
func All() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

func IsValid(value string) bool {
	_, err := Parse(value)
	return err == nil
}

func Parse(value string) (Level, error) {
	for _, l := range levels {
		if l.Value == value {
			return l, nil
		}
	}
	return Level{}, fmt.Errorf("unknown level %q", value)
}
