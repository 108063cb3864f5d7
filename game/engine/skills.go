package engine

// ZodiacSkill is an entry of the zodiac catalog. Activating it sets a dice
// value to DiceValue.
type ZodiacSkill struct {
	Name        string `json:"name"`
	Glyph       string `json:"glyph"`
	Description string `json:"description"`
	DiceValue   int    `json:"dice_value"`
}

var zodiacCatalog = []ZodiacSkill{
	{
		Name:        "rat",
		Glyph:       "子",
		Description: "Set the dice to 1. During movement it changes the current roll, before rolling it changes the pending roll.",
		DiceValue:   1,
	},
}

// ZodiacCatalog returns a copy of the available zodiac skills
func ZodiacCatalog() []ZodiacSkill {
	catalog := make([]ZodiacSkill, len(zodiacCatalog))
	copy(catalog, zodiacCatalog)
	return catalog
}

// LookupZodiac finds a zodiac skill by name or glyph
func LookupZodiac(name string) (ZodiacSkill, bool) {
	for _, z := range zodiacCatalog {
		if z.Name == name || z.Glyph == name {
			return z, true
		}
	}
	return ZodiacSkill{}, false
}
