package domain

// Deficit: combinación de roles y cuántos jugadores faltan para cubrirla.
type Deficit struct {
	Roles  []string `json:"roles"`
	Needed int      `json:"needed"`
}

// Snapshot es inmutable una vez publicado; nadie debe mutar sus slices.
type Snapshot struct {
	Players  map[string][]PublicProfile `json:"playersAvailable"`
	Captains []PublicProfile            `json:"captainsAvailable"`
	Deficits []Deficit                  `json:"neededRoles"`
}

// Ready: no hay ninguna combinación corta de jugadores.
func (s Snapshot) Ready() bool {
	return len(s.Deficits) == 0
}
