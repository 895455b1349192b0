// Package props interprets the free-form attribute bags of GeoJSON features.
//
// Sources disagree on property names (nombre, NOMBRE, name, RIO, ...), so every
// semantic field is resolved from an ordered list of candidate keys. The lists
// live in [Keys] and can be replaced from configuration.
package props

import "strings"

// Keys holds the candidate-key tables. Order matters: the first candidate with
// a usable value wins.
type Keys struct {
	// Label keys take precedence over Name for map labels.
	Label      []string          `toml:"label" json:"label"`
	Name       []string          `toml:"name" json:"name"`
	RegionID   []string          `toml:"region_id" json:"region_id"`
	RegionName []string          `toml:"region_name" json:"region_name"`
	Aliases    map[string]string `toml:"aliases" json:"aliases"`
	Hidden     []string          `toml:"hidden" json:"hidden"`
	Priority   []string          `toml:"priority" json:"priority"`

	hidden   map[string]bool
	priority map[string]int
}

// DefaultKeys returns the built-in tables.
func DefaultKeys() *Keys {
	k := &Keys{
		Label: []string{"etiqueta", "Etiqueta", "ETIQUETA"},
		Name: []string{
			"centro_salud", "centro", "nombre_estab", "nombre_establecimiento", "nombre_e",
			"NOMBRE", "Nombre", "nombre",
			"NAME", "Name", "name",
			"RIO", "Río", "Rio", "rio",
			"RIVER", "River", "river",
			"DESCRIPCION", "Descripcion", "descripcion", "desc",
		},
		RegionID:   []string{"id", "ID_1", "HASC_1", "ISO_1", "GID_1", "cartodb_id", "shapeID"},
		RegionName: []string{"name", "NAME_1", "NAME", "ADM1_ES", "adm1_es", "Nombre", "NOMBRE", "shapeName"},
		Aliases: map[string]string{
			"nombre": "Nombre", "name": "Nombre", "nom": "Nombre",
			"tipo": "Tipo", "category": "Categoría", "categoria": "Categoría", "cat": "Categoría",
			"municipio": "Municipio", "mun": "Municipio", "muni": "Municipio", "cod_mun": "Código Municipio",
			"provincia": "Provincia", "prov": "Provincia", "cod_prov": "Código Provincia",
			"departamento": "Departamento", "depto": "Departamento", "dpto": "Departamento", "cod_dep": "Código Departamento",
			"direccion": "Dirección", "dirección": "Dirección", "dir": "Dirección",
			"telefono": "Teléfono", "teléfono": "Teléfono", "tel": "Teléfono",
			"correo": "Correo", "email": "Email",
			"web": "Sitio web", "url": "Sitio web",
			"poblacion": "Población", "población": "Población", "pobl": "Población", "pob": "Población",
			"lat": "Latitud", "latitude": "Latitud", "y": "Latitud",
			"lon": "Longitud", "lng": "Longitud", "longitud": "Longitud", "x": "Longitud",
			"fuente": "Fuente", "source": "Fuente", "anio": "Año", "año": "Año",
			"rio": "Río", "río": "Río", "river": "Río",
		},
		Hidden: []string{
			"gid", "fid", "objectid", "osm_id", "id", "uuid", "uid",
			"shape_leng", "shape_le_1", "shape_length", "shape_area", "area", "perimeter", "geom", "geometry",
		},
		Priority: []string{
			"Nombre", "Tipo", "Categoría", "Dirección", "Municipio", "Provincia", "Departamento",
			"Teléfono", "Correo", "Sitio web", "Población", "Año", "Fuente", "Latitud", "Longitud",
		},
	}
	k.index()
	return k
}

// Merge replaces every table that o sets. Alias maps are merged key by key.
func (k *Keys) Merge(o Keys) {
	if len(o.Label) > 0 {
		k.Label = o.Label
	}
	if len(o.Name) > 0 {
		k.Name = o.Name
	}
	if len(o.RegionID) > 0 {
		k.RegionID = o.RegionID
	}
	if len(o.RegionName) > 0 {
		k.RegionName = o.RegionName
	}
	for from, to := range o.Aliases {
		if k.Aliases == nil {
			k.Aliases = map[string]string{}
		}
		k.Aliases[strings.ToLower(from)] = to
	}
	if len(o.Hidden) > 0 {
		k.Hidden = o.Hidden
	}
	if len(o.Priority) > 0 {
		k.Priority = o.Priority
	}
	k.index()
}

func (k *Keys) index() {
	k.hidden = make(map[string]bool, len(k.Hidden))
	for _, h := range k.Hidden {
		k.hidden[strings.ToLower(h)] = true
	}
	k.priority = make(map[string]int, len(k.Priority))
	for i, p := range k.Priority {
		if _, dup := k.priority[p]; !dup {
			k.priority[p] = i
		}
	}
}

// IsHidden reports whether key is an internal attribute never shown to users.
func (k *Keys) IsHidden(key string) bool {
	lk := strings.ToLower(key)
	if k.hidden == nil {
		for _, h := range k.Hidden {
			if strings.ToLower(h) == lk {
				return true
			}
		}
		return false
	}
	return k.hidden[lk]
}

// Rank orders display labels; unknown labels sort after all known ones.
func (k *Keys) Rank(label string) int {
	if k.priority == nil {
		for i, p := range k.Priority {
			if p == label {
				return i
			}
		}
		return 100
	}
	if i, ok := k.priority[label]; ok {
		return i
	}
	return 100
}

// HumanLabel maps a raw key to its display label. Unknown keys are
// lower-cased, have runs of '_' and '-' turned into a space and get an upper
// case first letter.
func (k *Keys) HumanLabel(key string) string {
	lk := strings.ToLower(key)
	if a, ok := k.Aliases[lk]; ok {
		return a
	}
	pretty := strings.TrimSpace(strings.Join(strings.FieldsFunc(lk, func(r rune) bool {
		return r == '_' || r == '-'
	}), " "))
	if pretty == "" {
		return key
	}
	r := []rune(pretty)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
