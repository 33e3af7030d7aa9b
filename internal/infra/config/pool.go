package config

import (
	"os"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/jose-valero/pug-coordinator/internal/domain"
)

// Pool es la config estática: servers, mapas, roles y tiempos. Sólo lectura en runtime.
type Pool struct {
	Servers map[string]domain.GameServer `yaml:"servers"`
	Maps    map[string]domain.GameMap    `yaml:"maps"`
	Roles   []domain.Role                `yaml:"roles"`

	Timeout       time.Duration `yaml:"timeout"`
	QueryInterval time.Duration `yaml:"queryInterval"`
	RetryInterval time.Duration `yaml:"retryInterval"`
}

const (
	defaultTimeout       = 5 * time.Second
	defaultQueryInterval = 5 * time.Second
	defaultRetryInterval = 30 * time.Second
)

func LoadPool(path string) (Pool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Pool{}, eris.Wrapf(err, "read pool file %s", path)
	}
	return ParsePool(raw)
}

func ParsePool(raw []byte) (Pool, error) {
	var p Pool
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Pool{}, eris.Wrap(err, "decode pool file")
	}

	// el nombre vive en la key del mapa
	for name, srv := range p.Servers {
		srv.Name = name
		p.Servers[name] = srv
	}
	for name, m := range p.Maps {
		m.Name = name
		p.Maps[name] = m
	}

	if p.Timeout <= 0 {
		p.Timeout = defaultTimeout
	}
	if p.QueryInterval <= 0 {
		p.QueryInterval = defaultQueryInterval
	}
	if p.RetryInterval <= 0 {
		p.RetryInterval = defaultRetryInterval
	}
	return p, p.validate()
}

func (p Pool) validate() error {
	if len(p.Roles) == 0 {
		return eris.New("pool: at least one role is required")
	}
	seen := map[string]struct{}{}
	for _, r := range p.Roles {
		if r.ID == "" {
			return eris.New("pool: role without id")
		}
		if _, dup := seen[r.ID]; dup {
			return eris.Errorf("pool: duplicated role %q", r.ID)
		}
		if r.Min < 0 {
			return eris.Errorf("pool: role %q has negative min", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	for name, srv := range p.Servers {
		if srv.Address == "" {
			return eris.Errorf("pool: server %q has no address", name)
		}
		if srv.Salt == "" {
			return eris.Errorf("pool: server %q has no salt", name)
		}
	}
	return nil
}

// ServerList devuelve el pool ordenado por nombre (orden estable para logs/tests).
func (p Pool) ServerList() []domain.GameServer {
	out := make([]domain.GameServer, 0, len(p.Servers))
	for _, s := range p.Servers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
