package tmdb

import (
	"net/url"
	"strconv"
	"strings"
)

// query builds a query string that keeps parameters in insertion order
type query struct {
	pairs [][2]string
}

func (q *query) add(key, value string) *query {
	q.pairs = append(q.pairs, [2]string{key, value})
	return q
}

func (q *query) addIf(key, value string) *query {
	if value = strings.TrimSpace(value); value != "" {
		q.add(key, value)
	}
	return q
}

func (q *query) encode() string {
	parts := make([]string, 0, len(q.pairs))
	for _, p := range q.pairs {
		parts = append(parts, url.QueryEscape(p[0])+"="+url.QueryEscape(p[1]))
	}
	return strings.Join(parts, "&")
}

// movieDiscoverPath builds the discover/movie endpoint for f, without a page
func movieDiscoverPath(f FilterCriteria) string {
	q := &query{}
	q.add("include_adult", "false").add("sort_by", "release_date.desc")

	ind, hasIndustry := LookupIndustry(f.Industry)
	if hasIndustry {
		q.add("with_original_language", ind.Language)
		q.add("region", ind.Region)
	}

	q.addIf("primary_release_year", f.Year)
	q.addIf("with_genres", f.Genre)

	if hasIndustry && strings.TrimSpace(f.ContentRating) != "" {
		q.add("certification_country", ind.Region)
		q.addIf("certification", f.ContentRating)
	}

	return "/discover/movie?" + q.encode()
}

// tvDiscoverPath builds the discover/tv endpoint for f, without a page.
// The API has no certification filter for TV, so ContentRating is unused.
func tvDiscoverPath(f FilterCriteria) string {
	q := &query{}
	q.add("include_adult", "false").add("sort_by", "first_air_date.desc")

	if ind, ok := LookupIndustry(f.Industry); ok {
		q.add("with_original_language", ind.Language)
		q.add("with_origin_country", ind.Region)
	}

	q.addIf("first_air_date_year", f.Year)
	q.addIf("with_genres", f.Genre)

	return "/discover/tv?" + q.encode()
}

// withPage appends a page parameter to an endpoint that already has a query
func withPage(endpoint string, page int) string {
	return endpoint + "&page=" + strconv.Itoa(page)
}
