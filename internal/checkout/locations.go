package checkout

import (
	"sort"

	"github.com/fjod/storefront/internal/domain"
)

// LocationDirectory is the static city/district/neighborhood dataset the
// address selects are filled from.
type LocationDirectory interface {
	Cities() []string
	Districts(city string) []string
	Neighborhoods(city, district string) []string
}

// MemoryDirectory is a LocationDirectory over a nested map
// city -> district -> neighborhoods.
type MemoryDirectory map[string]map[string][]string

func (d MemoryDirectory) Cities() []string {
	out := make([]string, 0, len(d))
	for c := range d {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (d MemoryDirectory) Districts(city string) []string {
	districts, ok := d[city]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(districts))
	for name := range districts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (d MemoryDirectory) Neighborhoods(city, district string) []string {
	return append([]string(nil), d[city][district]...)
}

// DefaultLocations is a trimmed dataset covering the largest cities.
var DefaultLocations = MemoryDirectory{
	"İstanbul": {
		"Kadıköy":  {"Caferağa", "Fenerbahçe", "Moda", "Koşuyolu"},
		"Beşiktaş": {"Levent", "Etiler", "Bebek", "Arnavutköy"},
		"Üsküdar":  {"Altunizade", "Kuzguncuk", "Acıbadem"},
	},
	"Ankara": {
		"Çankaya":     {"Kızılay", "Bahçelievler", "Ayrancı"},
		"Yenimahalle": {"Batıkent", "Demetevler"},
	},
	"İzmir": {
		"Konak":     {"Alsancak", "Göztepe"},
		"Karşıyaka": {"Bostanlı", "Mavişehir"},
	},
}

func validateLocation(v *domain.ValidationError, dir LocationDirectory, prefix, city, district, neighborhood string) {
	if city == "" {
		return
	}
	if !contains(dir.Cities(), city) {
		v.Add(prefix+"city", "unknown city")
		return
	}
	if district == "" {
		return
	}
	if !contains(dir.Districts(city), district) {
		v.Add(prefix+"district", "unknown district")
		return
	}
	if neighborhood == "" {
		return
	}
	if n := dir.Neighborhoods(city, district); len(n) > 0 && !contains(n, neighborhood) {
		v.Add(prefix+"neighborhood", "unknown neighborhood")
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
