// Package slug builds the public URL identifier of a job listing.
package slug

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Prefix starts every job listing slug
	Prefix = "job-listings"

	defaultExperience = "freshers"
	defaultJobType    = "full-time"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	spaces     = regexp.MustCompile(`\s+`)
	hyphens    = regexp.MustCompile(`-+`)
)

// Sanitize lower-cases s and reduces it to hyphen-separated [a-z0-9] words
func Sanitize(s string) string {
	s = strings.ToLower(s)
	s = disallowed.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(strings.TrimSpace(s), "-")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Generate returns job-listings-{title}-{experience}-{jobType}-{company}-{city}-{id}
func Generate(title, company, city, experienceLevel, jobType string, id int64) string {
	if strings.TrimSpace(experienceLevel) == "" {
		experienceLevel = defaultExperience
	}
	if strings.TrimSpace(jobType) == "" {
		jobType = defaultJobType
	}

	return fmt.Sprintf("%s-%s-%s-%s-%s-%s-%d",
		Prefix,
		Sanitize(title),
		Sanitize(experienceLevel),
		Sanitize(jobType),
		Sanitize(company),
		Sanitize(city),
		id,
	)
}

// ParseID extracts the trailing numeric id of a slug
func ParseID(s string) (int64, error) {
	idx := strings.LastIndex(s, "-")
	if idx < 0 || idx == len(s)-1 {
		return 0, fmt.Errorf("slug %q has no id suffix", s)
	}

	id, err := strconv.ParseInt(s[idx+1:], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("slug %q has an invalid id suffix", s)
	}
	return id, nil
}
