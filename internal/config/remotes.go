package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Remotes holds all named remotes and tracks which one is active.
type Remotes struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

// Remote is a named server profile.
type Remote struct {
	URL         string `toml:"url"`
	Transport   string `toml:"transport,omitempty"`
	Token       string `toml:"token,omitempty"`
	NATSURL     string `toml:"nats_url,omitempty"`
	Description string `toml:"description,omitempty"`
}

// RemotesPath returns ~/.local/state/flags/remotes.toml, creating the
// directory if needed.
func RemotesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "flags")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "remotes.toml"), nil
}

// LoadRemotes reads the remotes file at path. A missing file is an empty
// configuration.
func LoadRemotes(path string) (*Remotes, error) {
	var r Remotes
	if _, err := toml.DecodeFile(path, &r); err != nil {
		if os.IsNotExist(err) {
			return &Remotes{Remotes: map[string]Remote{}}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if r.Remotes == nil {
		r.Remotes = map[string]Remote{}
	}
	return &r, nil
}

// Save writes r to path, readable only by the owner.
func (r *Remotes) Save(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Current returns the active remote, if any.
func (r *Remotes) Current() (Remote, bool) {
	if r.Active == "" {
		return Remote{}, false
	}
	rem, ok := r.Remotes[r.Active]
	return rem, ok
}

// Use makes name the active remote. An empty name clears it.
func (r *Remotes) Use(name string) error {
	if name != "" {
		if _, ok := r.Remotes[name]; !ok {
			return fmt.Errorf("remote %q not found", name)
		}
	}
	r.Active = name
	return nil
}

// Remove deletes name, clearing the active remote if it was active.
func (r *Remotes) Remove(name string) error {
	if _, ok := r.Remotes[name]; !ok {
		return fmt.Errorf("remote %q not found", name)
	}
	delete(r.Remotes, name)
	if r.Active == name {
		r.Active = ""
	}
	return nil
}

// Names returns the remote names in sorted order.
func (r *Remotes) Names() []string {
	names := make([]string, 0, len(r.Remotes))
	for name := range r.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
