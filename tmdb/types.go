package tmdb

import (
	"sort"
	"strings"
)

// MediaKind selects between the movie and TV halves of the catalog
type MediaKind string

const (
	// KindMovie represents movies
	KindMovie MediaKind = "movie"
	// KindTV represents TV shows
	KindTV MediaKind = "tv"
)

// ParseMediaKind accepts "movie"/"movies" and "tv"/"shows"
func ParseMediaKind(s string) (MediaKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return KindMovie, true
	case "tv", "show", "shows":
		return KindTV, true
	default:
		return "", false
	}
}

// MediaRecord is a movie, show, video or credits object exactly as the API
// returned it. JSON numbers decode as float64.
type MediaRecord map[string]any

// ID returns the numeric id of the record
func (m MediaRecord) ID() (int64, bool) {
	v, ok := m["id"].(float64)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

// Title returns the movie title or the show name
func (m MediaRecord) Title() string {
	if s, ok := m["title"].(string); ok && s != "" {
		return s
	}
	s, _ := m["name"].(string)
	return s
}

// ReleaseDate returns the movie release date or the show first air date
func (m MediaRecord) ReleaseDate() string {
	if s, ok := m["release_date"].(string); ok && s != "" {
		return s
	}
	s, _ := m["first_air_date"].(string)
	return s
}

// Year returns the four digit year of ReleaseDate, or "" if unknown
func (m MediaRecord) Year() string {
	if d := m.ReleaseDate(); len(d) >= 4 {
		return d[:4]
	}
	return ""
}

// VoteAverage returns the average rating
func (m MediaRecord) VoteAverage() float64 {
	v, _ := m["vote_average"].(float64)
	return v
}

// Overview returns the plot summary
func (m MediaRecord) Overview() string {
	s, _ := m["overview"].(string)
	return s
}

// Type returns the type field, set on video records ("Trailer", "Teaser", ...)
func (m MediaRecord) Type() string {
	s, _ := m["type"].(string)
	return s
}

// Key returns the video key, set on video records
func (m MediaRecord) Key() string {
	s, _ := m["key"].(string)
	return s
}

// OriginCountries returns the origin_country list of a show
func (m MediaRecord) OriginCountries() []string {
	raw, _ := m["origin_country"].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GenreIDs returns genre_ids, or the ids of genres on detail records
func (m MediaRecord) GenreIDs() []int {
	var out []int
	if raw, ok := m["genre_ids"].([]any); ok {
		for _, v := range raw {
			if f, ok := v.(float64); ok {
				out = append(out, int(f))
			}
		}
		return out
	}

	raw, _ := m["genres"].([]any)
	for _, v := range raw {
		if g, ok := v.(map[string]any); ok {
			if f, ok := g["id"].(float64); ok {
				out = append(out, int(f))
			}
		}
	}
	return out
}

// HasOriginCountry reports whether the record lists region as an origin country
func (m MediaRecord) HasOriginCountry(region string) bool {
	for _, c := range m.OriginCountries() {
		if strings.EqualFold(c, region) {
			return true
		}
	}
	return false
}

// Page is one page of a paged listing
type Page struct {
	Results    []MediaRecord `json:"results"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

// listResponse is the envelope of every list endpoint
type listResponse struct {
	Page         int           `json:"page"`
	Results      []MediaRecord `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// records drops entries without a numeric id
func (r *listResponse) records() []MediaRecord {
	out := make([]MediaRecord, 0, len(r.Results))
	for _, rec := range r.Results {
		if _, ok := rec.ID(); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Industry maps a film industry to the region and language the API filters on
type Industry struct {
	Name     string `json:"name"`
	Region   string `json:"region"`
	Language string `json:"language"`
}

var industries = map[string]Industry{
	"hollywood": {Name: "Hollywood", Region: "US", Language: "en"},
	"bollywood": {Name: "Bollywood", Region: "IN", Language: "hi"},
	"korean":    {Name: "Korean", Region: "KR", Language: "ko"},
	"japanese":  {Name: "Japanese", Region: "JP", Language: "ja"},
}

// LookupIndustry finds an industry by name, ignoring case
func LookupIndustry(name string) (Industry, bool) {
	ind, ok := industries[strings.ToLower(strings.TrimSpace(name))]
	return ind, ok
}

// Industries returns every known industry sorted by name
func Industries() []Industry {
	out := make([]Industry, 0, len(industries))
	for _, ind := range industries {
		out = append(out, ind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FilterCriteria narrows a discovery query. Empty fields are not sent.
type FilterCriteria struct {
	Industry      string `json:"industry,omitempty"`
	Year          string `json:"year,omitempty"`
	Genre         string `json:"genre,omitempty"`
	ContentRating string `json:"content_rating,omitempty"`
}

// IsZero reports whether no filter is set
func (f FilterCriteria) IsZero() bool {
	return f == FilterCriteria{}
}

// Status describes the health of the catalog connection as last observed
type Status struct {
	Blocked        bool   `json:"blocked"`
	Stale          bool   `json:"stale"`
	SuspectNetwork bool   `json:"suspect_network"`
	Message        string `json:"message,omitempty"`
	Help           string `json:"help,omitempty"`
	LastError      string `json:"last_error,omitempty"`
}
