package catalog

import "slices"

// Situation values offered on the damage step.
const (
	SituationInsurance = "Faire marcher mon assurance"
	SituationUndecided = "Je ne sais pas encore (J'ai besoin d'un devis et de conseil)"
	SituationSelfFund  = "Financer ces travaux moi-même"
)

var situations = []string{SituationInsurance, SituationUndecided, SituationSelfFund}

// CityOther lets the customer type a location not in the list.
const CityOther = "Autre"

var cities = []string{
	"Marseille", "Paris", "Lyon", "Toulouse", "Nice", "Nantes", "Montpellier",
	"Strasbourg", "Bordeaux", "Lille", "Rennes", "Reims", "Toulon", "Le Havre",
	"Saint-Étienne", "Grenoble", "Dijon", "Angers", "Nîmes", "Aix-en-Provence",
	"Clermont-Ferrand", "Le Mans", "Brest", "Tours", "Amiens", "Limoges",
	"Perpignan", "Metz", "Besançon", "Orléans", "Rouen", "Caen", "Nancy",
	"Avignon", "Cannes", "Antibes", CityOther,
}

// Civility values.
const (
	CivilityMrs = "Mme"
	CivilityMr  = "M"
)

// ContactPreference is how the customer wants to be called back.
type ContactPreference struct {
	Value string
	Label string
}

var contactPreferences = []ContactPreference{
	{Value: "email", Label: "Email"},
	{Value: "phone", Label: "Appel"},
}

func Situations() []string { return slices.Clone(situations) }

func IsSituation(s string) bool { return slices.Contains(situations, s) }

// Cities returns the named cities followed by CityOther.
func Cities() []string { return slices.Clone(cities) }

func ContactPreferences() []ContactPreference { return slices.Clone(contactPreferences) }

func IsContactPreference(v string) bool {
	for _, p := range contactPreferences {
		if p.Value == v {
			return true
		}
	}
	return false
}

func IsCivility(v string) bool { return v == CivilityMrs || v == CivilityMr }
