// Package theme defines the visual palettes a client can render the
// journal with. The selected theme is an explicit value owned by the
// composition root and handed to clients; there is no process-wide
// mutable singleton and nothing is persisted.
package theme

// Palette is a named set of five hex colors, darkest to lightest accent.
type Palette struct {
	Name      string `json:"name"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Tertiary  string `json:"tertiary"`
	Fourth    string `json:"fourth"`
	Fifth     string `json:"fifth"`
}

// The five built-in palettes.
var (
	SoftSage = Palette{
		Name:      "classic",
		Primary:   "#1F2D27",
		Secondary: "#E6F2EC",
		Tertiary:  "#BFD9CC",
		Fourth:    "#8DAF9F",
		Fifth:     "#566F64",
	}
	BlushMauve = Palette{
		Name:      "blush",
		Primary:   "#2E1A2F",
		Secondary: "#F6E7F3",
		Tertiary:  "#E2BFD9",
		Fourth:    "#C193B6",
		Fifth:     "#7B4A70",
	}
	WarmLatte = Palette{
		Name:      "latte",
		Primary:   "#2B221B",
		Secondary: "#FAF2EA",
		Tertiary:  "#E6D4C2",
		Fourth:    "#C9AB8F",
		Fifth:     "#7A5E4A",
	}
	MistyBlue = Palette{
		Name:      "misty",
		Primary:   "#101C2C",
		Secondary: "#EAF2FB",
		Tertiary:  "#C6D9F2",
		Fourth:    "#92B5DE",
		Fifth:     "#415F88",
	}
	SoftCitrus = Palette{
		Name:      "citrus",
		Primary:   "#33240D",
		Secondary: "#FFF7E6",
		Tertiary:  "#FFE3B3",
		Fourth:    "#FFC971",
		Fifth:     "#9E6B2E",
	}
)

// Default is the palette used when no selection was made.
var Default = SoftSage

var byName = map[string]Palette{
	SoftSage.Name:   SoftSage,
	BlushMauve.Name: BlushMauve,
	WarmLatte.Name:  WarmLatte,
	MistyBlue.Name:  MistyBlue,
	SoftCitrus.Name: SoftCitrus,
}

// ByName returns the palette for name, or Default and false when the
// name is unknown.
func ByName(name string) (Palette, bool) {
	p, ok := byName[name]
	if !ok {
		return Default, false
	}
	return p, true
}
