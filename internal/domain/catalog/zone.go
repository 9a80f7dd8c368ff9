package catalog

// ZoneKind separates glass surfaces from lighting units.
type ZoneKind string

const (
	KindGlazing ZoneKind = "glazing"
	KindOptics  ZoneKind = "optics"
)

// Zone is a damageable surface of the vehicle.
type Zone struct {
	ID         string
	Label      string
	ShortLabel string
	Kind       ZoneKind
}

var zones = []Zone{
	{ID: "pare-brise", Label: "Pare-brise", ShortLabel: "Pare-brise", Kind: KindGlazing},
	{ID: "lunette-arriere", Label: "Lunette Arrière", ShortLabel: "Lunette", Kind: KindGlazing},
	{ID: "vitre-avant-gauche", Label: "Vitre Avant Gauche", ShortLabel: "Av. G", Kind: KindGlazing},
	{ID: "vitre-avant-droite", Label: "Vitre Avant Droite", ShortLabel: "Av. D", Kind: KindGlazing},
	{ID: "vitre-arriere-gauche", Label: "Vitre Arrière Gauche", ShortLabel: "Ar. G", Kind: KindGlazing},
	{ID: "vitre-arriere-droite", Label: "Vitre Arrière Droite", ShortLabel: "Ar. D", Kind: KindGlazing},
	{ID: "toit-panoramique", Label: "Toit Panoramique", ShortLabel: "Toit", Kind: KindGlazing},
	{ID: "custode-avant-gauche", Label: "Custode Avant Gauche", ShortLabel: "Cust. Av. G", Kind: KindGlazing},
	{ID: "custode-avant-droite", Label: "Custode Avant Droite", ShortLabel: "Cust. Av. D", Kind: KindGlazing},
	{ID: "custode-arriere-gauche", Label: "Custode Arrière Gauche", ShortLabel: "Cust. Ar. G", Kind: KindGlazing},
	{ID: "custode-arriere-droite", Label: "Custode Arrière Droite", ShortLabel: "Cust. Ar. D", Kind: KindGlazing},
	{ID: "phare-avant-gauche", Label: "Phare Avant Gauche", ShortLabel: "Phare G", Kind: KindOptics},
	{ID: "phare-avant-droit", Label: "Phare Avant Droit", ShortLabel: "Phare D", Kind: KindOptics},
	{ID: "feu-arriere-gauche", Label: "Feu Arrière Gauche", ShortLabel: "Feu G", Kind: KindOptics},
	{ID: "feu-arriere-droit", Label: "Feu Arrière Droit", ShortLabel: "Feu D", Kind: KindOptics},
}

var zoneIndex = func() map[string]Zone {
	idx := make(map[string]Zone, len(zones))
	for _, z := range zones {
		idx[z.ID] = z
	}
	return idx
}()

// Zones returns the full zone catalog in display order.
func Zones() []Zone {
	out := make([]Zone, len(zones))
	copy(out, zones)
	return out
}

// ZoneByID looks a zone up by id.
func ZoneByID(id string) (Zone, bool) {
	z, ok := zoneIndex[id]
	return z, ok
}

// ZoneLabels maps ids to their labels, keeping the order of ids and
// skipping unknown ones.
func ZoneLabels(ids []string) []string {
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if z, ok := zoneIndex[id]; ok {
			labels = append(labels, z.Label)
		}
	}
	return labels
}
