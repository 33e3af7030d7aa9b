package service

import "github.com/jose-valero/pug-coordinator/internal/domain"

// CalculateDeficits recorre todas las combinaciones no vacías de roles (2^n - 1, n es chico)
// y devuelve las que están cortas de jugadores. Requeridos = Σ min*2 (dos lados);
// disponibles = tamaño de la unión, así alguien anotado en dos roles cuenta una vez.
func CalculateDeficits(roles []domain.Role, available map[string]map[string]struct{}) []domain.Deficit {
	var out []domain.Deficit
	n := len(roles)
	for k := 1; k <= n; k++ {
		combinations(n, k, func(combo []int) {
			names := make([]string, len(combo))
			union := map[string]struct{}{}
			required := 0
			for i, ri := range combo {
				role := roles[ri]
				names[i] = role.ID
				required += role.Min * 2
				for id := range available[role.ID] {
					union[id] = struct{}{}
				}
			}
			if missing := required - len(union); missing > 0 {
				out = append(out, domain.Deficit{Roles: names, Needed: missing})
			}
		})
	}
	return out
}

// combinations visita los subconjuntos de tamaño k de [0,n) en orden lexicográfico.
// El slice que recibe visit se reusa entre llamadas.
func combinations(n, k int, visit func([]int)) {
	combo := make([]int, k)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == k {
			visit(combo)
			return
		}
		for i := start; i <= n-(k-depth); i++ {
			combo[depth] = i
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
}
