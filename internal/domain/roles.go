package domain

// Role es un puesto dentro del match con mínimo de jugadores por lado.
type Role struct {
	ID    string `yaml:"id"`
	Min   int    `yaml:"min"`
	Class string `yaml:"class"`
}

// Participant: lo que nos pasa la capa de sesión cuando alguien cambia disponibilidad.
type Participant struct {
	ID      string `json:"id"`
	Alias   string `json:"alias"`
	SteamID string `json:"steamId"`
}

// PublicProfile es lo único que sale en los snapshots (sin IDs internos).
type PublicProfile struct {
	Alias   string `json:"alias"`
	SteamID string `json:"steamId"`
}

func (p Participant) Public() PublicProfile {
	return PublicProfile{Alias: p.Alias, SteamID: p.SteamID}
}

type Aspect string

const (
	AspectPlay    Aspect = "play"
	AspectCaptain Aspect = "captain"
)

// Restrictions llega del caller; acá no se re-deriva nada.
type Restrictions map[Aspect]struct{}

func NewRestrictions(aspects ...Aspect) Restrictions {
	r := Restrictions{}
	for _, a := range aspects {
		r[a] = struct{}{}
	}
	return r
}

func (r Restrictions) Has(a Aspect) bool {
	_, ok := r[a]
	return ok
}

// tabla fija de clases del juego -> código numérico del plugin
var classCodes = map[string]int{
	"scout":    1,
	"sniper":   2,
	"soldier":  3,
	"demoman":  4,
	"medic":    5,
	"heavy":    6,
	"pyro":     7,
	"spy":      8,
	"engineer": 9,
}

// ClassCode devuelve 0 para clases desconocidas.
func ClassCode(class string) int {
	return classCodes[class]
}
