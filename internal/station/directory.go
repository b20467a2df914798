package station

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Directory holds the merged station list: built-ins plus user additions,
// with favorites sorted to the front.
type Directory struct {
	builtin   []Station
	user      []Station
	favorites map[string]bool
}

// NewDirectory merges the built-in list with user stations and favorite IDs
// loaded from the config file.
func NewDirectory(builtin, user []Station, favoriteIDs []string) *Directory {
	d := &Directory{
		builtin:   append([]Station(nil), builtin...),
		user:      append([]Station(nil), user...),
		favorites: make(map[string]bool, len(favoriteIDs)),
	}
	for _, id := range favoriteIDs {
		d.favorites[id] = true
	}
	return d
}

// All returns every station, favorites first, each group in stable order.
func (d *Directory) All() []Station {
	out := make([]Station, 0, len(d.builtin)+len(d.user))
	out = append(out, d.builtin...)
	out = append(out, d.user...)
	sort.SliceStable(out, func(i, j int) bool {
		return d.favorites[out[i].ID] && !d.favorites[out[j].ID]
	})
	return out
}

// Get returns the station with the given ID.
func (d *Directory) Get(id string) (Station, bool) {
	for _, s := range d.builtin {
		if s.ID == id {
			return s, true
		}
	}
	for _, s := range d.user {
		if s.ID == id {
			return s, true
		}
	}
	return Station{}, false
}

// Add appends a user station, minting an ID when none is set, and returns it.
// An empty name falls back to the URL.
func (d *Directory) Add(s Station) Station {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if strings.TrimSpace(s.Name) == "" {
		s.Name = s.URL
	}
	d.user = append(d.user, s)
	return s
}

// Remove deletes a user station. Built-ins cannot be removed.
func (d *Directory) Remove(id string) bool {
	for i, s := range d.user {
		if s.ID == id {
			d.user = append(d.user[:i], d.user[i+1:]...)
			delete(d.favorites, id)
			return true
		}
	}
	return false
}

// IsUser reports whether the station was added by the user.
func (d *Directory) IsUser(id string) bool {
	for _, s := range d.user {
		if s.ID == id {
			return true
		}
	}
	return false
}

// ToggleFavorite flips the favorite flag and returns the new state.
func (d *Directory) ToggleFavorite(id string) bool {
	if d.favorites[id] {
		delete(d.favorites, id)
		return false
	}
	d.favorites[id] = true
	return true
}

// IsFavorite reports whether the station is a favorite.
func (d *Directory) IsFavorite(id string) bool {
	return d.favorites[id]
}

// UserStations returns the user-added stations for persisting.
func (d *Directory) UserStations() []Station {
	return append([]Station(nil), d.user...)
}

// FavoriteIDs returns the favorite IDs for persisting, sorted for stable
// config files.
func (d *Directory) FavoriteIDs() []string {
	ids := make([]string, 0, len(d.favorites))
	for id := range d.favorites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Promos returns the promo lines of all stations that carry one.
func (d *Directory) Promos() []string {
	out := make([]string, 0)
	for _, s := range d.All() {
		if s.Promo != "" {
			out = append(out, s.Promo)
		}
	}
	return out
}
