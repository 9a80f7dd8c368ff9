// Package catalog holds the closed lists offered by the quote wizard.
package catalog

import "slices"

// Other is the catch-all entry present in every list.
const Other = "AUTRE"

var brands = []string{
	"RENAULT", "PEUGEOT", "CITROËN", "VOLKSWAGEN", "TOYOTA",
	"FORD", "BMW", "MERCEDES", "AUDI", "FIAT", "OPEL", "NISSAN",
	"HYUNDAI", "KIA", "DACIA", "TESLA", Other,
}

var models = map[string][]string{
	"RENAULT":    {"CLIO", "MEGANE", "CAPTUR", "SCENIC", "TWINGO", "KADJAR", "ARKANA", "ZOE", Other},
	"PEUGEOT":    {"208", "308", "2008", "3008", "5008", "508", "PARTNER", Other},
	"CITROËN":    {"C3", "C4", "C5", "BERLINGO", "C3 AIRCROSS", "C5 AIRCROSS", Other},
	"VOLKSWAGEN": {"GOLF", "POLO", "TIGUAN", "PASSAT", "T-ROC", "ID.3", "ID.4", Other},
	"TOYOTA":     {"YARIS", "COROLLA", "C-HR", "RAV4", "AYGO", "CAMRY", Other},
	"FORD":       {"FIESTA", "FOCUS", "PUMA", "KUGA", "MONDEO", Other},
	"BMW":        {"SÉRIE 1", "SÉRIE 3", "SÉRIE 5", "X1", "X3", "X5", Other},
	"MERCEDES":   {"CLASSE A", "CLASSE C", "CLASSE E", "GLA", "GLC", Other},
	"AUDI":       {"A1", "A3", "A4", "Q2", "Q3", "Q5", Other},
	"FIAT":       {"500", "PANDA", "TIPO", "500X", Other},
	"OPEL":       {"CORSA", "ASTRA", "CROSSLAND", "MOKKA", Other},
	"NISSAN":     {"MICRA", "QASHQAI", "JUKE", "LEAF", Other},
	"HYUNDAI":    {"I10", "I20", "I30", "TUCSON", "KONA", Other},
	"KIA":        {"PICANTO", "RIO", "CEED", "SPORTAGE", "NIRO", Other},
	"DACIA":      {"SANDERO", "DUSTER", "LOGAN", "SPRING", Other},
	"TESLA":      {"MODEL 3", "MODEL Y", "MODEL S", "MODEL X", Other},
	Other:        {Other},
}

var bodyTypes = []string{
	"BERLINE, 5 portes",
	"BERLINE, 4 portes",
	"BERLINE, 3 portes",
	"BREAK",
	"COUPÉ",
	"CABRIOLET",
	"SUV",
	"MONOSPACE",
	"UTILITAIRE",
	Other,
}

// Brands returns the selectable vehicle brands.
func Brands() []string { return slices.Clone(brands) }

// ModelsFor returns the models of brand, or nil for an unknown brand.
func ModelsFor(brand string) []string {
	m, ok := models[brand]
	if !ok {
		return nil
	}
	return slices.Clone(m)
}

// BodyTypes returns the selectable body types.
func BodyTypes() []string { return slices.Clone(bodyTypes) }

func IsBrand(brand string) bool { return slices.Contains(brands, brand) }

func IsModel(brand, model string) bool { return slices.Contains(models[brand], model) }

func IsBodyType(bodyType string) bool { return slices.Contains(bodyTypes, bodyType) }
