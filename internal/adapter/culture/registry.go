package culture

import (
	"sort"
	"strings"

	"cultura/config"
	"cultura/internal/domain"
)

// DefaultNotes is returned for cultures without a notes entry.
const DefaultNotes = "Be respectful and appropriate"

var builtinProfiles = []domain.CultureProfile{
	{ID: "japanese", Language: "ja", Politeness: domain.LevelHigh, Directness: domain.LevelLow},
	{ID: "american", Language: "en", Politeness: domain.LevelMedium, Directness: domain.LevelHigh},
	{ID: "chinese", Language: "zh", Politeness: domain.LevelHigh, Directness: domain.LevelMedium},
	{ID: "german", Language: "de", Politeness: domain.LevelMedium, Directness: domain.LevelHigh},
	{ID: "french", Language: "fr", Politeness: domain.LevelMedium, Directness: domain.LevelMedium},
}

var builtinNotes = map[string]string{
	"japanese": "Use polite language and indirect expressions",
	"american": "Be direct and confident in communication",
	"chinese":  "Show respect and avoid confrontational language",
	"german":   "Be precise and straightforward",
	"french":   "Maintain elegance and proper etiquette",
}

// Registry is a read-only table of culture profiles and etiquette notes.
// It is safe for concurrent use once constructed.
type Registry struct {
	profiles map[string]domain.CultureProfile
	notes    map[string]string
}

// NewRegistry builds the registry from the built-in table plus overrides.
// An override with an existing id replaces that profile.
func NewRegistry(overrides []config.CultureConfig) *Registry {
	r := &Registry{
		profiles: make(map[string]domain.CultureProfile, len(builtinProfiles)+len(overrides)),
		notes:    make(map[string]string, len(builtinNotes)+len(overrides)),
	}
	for _, p := range builtinProfiles {
		r.profiles[p.ID] = p
	}
	for id, n := range builtinNotes {
		r.notes[id] = n
	}

	for _, o := range overrides {
		id := Normalize(o.ID)
		if id == "" {
			continue
		}
		lang := strings.TrimSpace(o.Language)
		if lang == "" {
			lang = "en"
		}
		r.profiles[id] = domain.CultureProfile{
			ID:         id,
			Language:   lang,
			Politeness: domain.ParseLevel(o.Politeness),
			Directness: domain.ParseLevel(o.Directness),
		}
		if o.Notes != "" {
			r.notes[id] = o.Notes
		}
	}

	return r
}

// Normalize canonicalizes a culture identifier.
func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Resolve returns the profile for id, or the default profile when id is not
// registered.
func (r *Registry) Resolve(id string) domain.CultureProfile {
	id = Normalize(id)
	if p, ok := r.profiles[id]; ok {
		return p
	}
	return domain.DefaultProfile(id)
}

func (r *Registry) Known(id string) bool {
	_, ok := r.profiles[Normalize(id)]
	return ok
}

// Notes returns the short etiquette reminder for id.
func (r *Registry) Notes(id string) string {
	if n, ok := r.notes[Normalize(id)]; ok {
		return n
	}
	return DefaultNotes
}

// List returns all registered profiles sorted by id.
func (r *Registry) List() []domain.CultureProfile {
	list := make([]domain.CultureProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}
