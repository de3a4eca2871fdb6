package quality

// Lexicon is the three-tier domain keyword list the relevance score is
// computed against. Loaded once at startup and passed by reference so
// tests can swap in alternate vocabularies.
type Lexicon struct {
	High   []string
	Medium []string
	Basic  []string
}

// DefaultLexicon covers the military news domain in both languages the
// harvested sources publish in.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		High: []string{
			"армия", "военный", "оборона", "безопасность", "стратегия", "тактика",
			"army", "military", "defense", "security", "strategy", "tactics",
		},
		Medium: []string{
			"операция", "учения", "техника", "вооружение", "командование", "войска",
			"operation", "exercise", "weaponry", "command", "troops", "deployment",
		},
		Basic: []string{
			"солдат", "офицер", "база", "граница", "патруль", "служба",
			"soldier", "officer", "base", "border", "patrol", "service",
		},
	}
}

// Category couples a label with its trigger keywords and a weight that
// boosts or damps the category in close calls.
type Category struct {
	Label    string
	Keywords []string
	Weight   float64
}

// DefaultCategories mirrors the editorial taxonomy of the site.
func DefaultCategories() []Category {
	return []Category{
		{
			Label:    "Military Equipment",
			Keywords: []string{"танк", "самолет", "корабль", "ракета", "дрон", "вертолет", "tank", "aircraft", "missile", "drone", "warship", "helicopter"},
			Weight:   1.0,
		},
		{
			Label:    "International Relations",
			Keywords: []string{"дипломатия", "переговоры", "соглашение", "альянс", "санкции", "diplomacy", "negotiations", "treaty", "alliance", "sanctions", "summit"},
			Weight:   1.0,
		},
		{
			Label:    "National Defense",
			Keywords: []string{"минобороны", "генштаб", "мобилизация", "ministry of defense", "general staff", "national guard"},
			Weight:   1.2,
		},
		{
			Label:    "Military Exercises",
			Keywords: []string{"учения", "маневры", "тренировка", "полигон", "стрельбы", "exercise", "drills", "maneuvers", "training range", "live fire"},
			Weight:   1.0,
		},
		{
			Label:    "Conflicts",
			Keywords: []string{"конфликт", "война", "боевые действия", "столкновение", "conflict", "war", "combat", "clashes", "offensive"},
			Weight:   1.1,
		},
		{
			Label:    "Cybersecurity",
			Keywords: []string{"кибер", "хакер", "киберугроза", "cyber", "hacker", "information security"},
			Weight:   0.9,
		},
		{
			Label:    "Space and Defense",
			Keywords: []string{"спутник", "космос", "орбита", "satellite", "orbit", "space forces"},
			Weight:   0.8,
		},
	}
}
