package npm

import "time"

// Person is a maintainer, author or publisher.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Dist describes the published tarball of a version.
type Dist struct {
	Tarball      string `json:"tarball"`
	Shasum       string `json:"shasum,omitempty"`
	Integrity    string `json:"integrity,omitempty"`
	FileCount    int    `json:"file_count,omitempty"`
	UnpackedSize int64  `json:"unpacked_size,omitempty"`
}

// Version is a single published version manifest.
type Version struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Description          string            `json:"description,omitempty"`
	License              string            `json:"license,omitempty"`
	Author               string            `json:"author,omitempty"`
	Homepage             string            `json:"homepage,omitempty"`
	Repository           string            `json:"repository,omitempty"`
	Deprecated           string            `json:"deprecated,omitempty"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	DevDependencies      map[string]string `json:"dev_dependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peer_dependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optional_dependencies,omitempty"`
	Engines              map[string]string `json:"engines,omitempty"`
	Dist                 Dist              `json:"dist"`
	PublishedAt          *time.Time        `json:"published_at,omitempty"`
}

// Package is the normalized package document.
// Latest holds the manifest of the "latest" dist-tag.
type Package struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	DistTags    map[string]string `json:"dist_tags"`
	Versions    []string          `json:"versions"` // oldest first
	Keywords    []string          `json:"keywords,omitempty"`
	Maintainers []Person          `json:"maintainers,omitempty"`
	License     string            `json:"license,omitempty"`
	Homepage    string            `json:"homepage,omitempty"`
	Repository  string            `json:"repository,omitempty"`
	BugsURL     string            `json:"bugs_url,omitempty"`
	Created     *time.Time        `json:"created,omitempty"`
	Modified    *time.Time        `json:"modified,omitempty"`
	Latest      *Version          `json:"latest,omitempty"`
}

// LatestVersion returns the version string the "latest" dist-tag points to.
func (p *Package) LatestVersion() string { return p.DistTags["latest"] }

// SearchResult is one page of registry search results.
type SearchResult struct {
	Total   int           `json:"total"`
	Time    string        `json:"time,omitempty"`
	Objects []SearchEntry `json:"objects"`
}

// SearchEntry is a single search hit with its ranking scores.
type SearchEntry struct {
	Package     SearchPackage `json:"package"`
	Score       Score         `json:"score"`
	SearchScore float64       `json:"searchScore"`
	Downloads   *Period       `json:"downloads,omitempty"`
}

// SearchPackage is the package summary embedded in search hits.
type SearchPackage struct {
	Name        string            `json:"name"`
	Scope       string            `json:"scope,omitempty"`
	Version     string            `json:"version"`
	Description string            `json:"description,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`
	Date        *time.Time        `json:"date,omitempty"`
	Links       map[string]string `json:"links,omitempty"`
	Publisher   *User             `json:"publisher,omitempty"`
	Maintainers []User            `json:"maintainers,omitempty"`
}

// User is a registry account as it appears in search results.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Score holds the registry's composite search score.
type Score struct {
	Final  float64     `json:"final"`
	Detail ScoreDetail `json:"detail"`
}

// ScoreDetail breaks a score into its components, each in [0, 1].
type ScoreDetail struct {
	Quality     float64 `json:"quality"`
	Popularity  float64 `json:"popularity"`
	Maintenance float64 `json:"maintenance"`
}

// Period is a download count over a period.
type Period struct {
	Weekly  int `json:"weekly,omitempty"`
	Monthly int `json:"monthly,omitempty"`
}

// Downloads is the total download count of a package over a period.
type Downloads struct {
	Package   string `json:"package"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Downloads int    `json:"downloads"`
}

// DayCount is the download count of a single day.
type DayCount struct {
	Day       string `json:"day"`
	Downloads int    `json:"downloads"`
}

// DownloadRange is the per-day download history of a package.
type DownloadRange struct {
	Package   string     `json:"package"`
	Start     string     `json:"start"`
	End       string     `json:"end"`
	Downloads []DayCount `json:"downloads"`
}

// Total sums the daily counts.
func (r *DownloadRange) Total() int {
	n := 0
	for _, d := range r.Downloads {
		n += d.Downloads
	}
	return n
}

// registry wire formats

type packumentResponse struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	DistTags    map[string]string          `json:"dist-tags"`
	Versions    map[string]versionResponse `json:"versions"`
	Time        map[string]any             `json:"time"`
	Maintainers []any                      `json:"maintainers"`
	Keywords    any                        `json:"keywords"`
	License     any                        `json:"license"`
	Homepage    string                     `json:"homepage"`
	Repository  any                        `json:"repository"`
	Bugs        any                        `json:"bugs"`
}

type versionResponse struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Description          string            `json:"description"`
	License              any               `json:"license"`
	Author               any               `json:"author"`
	Repository           any               `json:"repository"`
	HomePage             string            `json:"homepage"`
	Deprecated           any               `json:"deprecated"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	Engines              any               `json:"engines"`
	Dist                 struct {
		Tarball      string `json:"tarball"`
		Shasum       string `json:"shasum"`
		Integrity    string `json:"integrity"`
		FileCount    int    `json:"fileCount"`
		UnpackedSize int64  `json:"unpackedSize"`
	} `json:"dist"`
}
