package domain

// OwnerStats is the materialized per-owner summary recomputed from the
// repositories collection. It is never authored directly.
type OwnerStats struct {
	Login      string   `bson:"_id" json:"login"`
	TotalRepos int      `bson:"total_repos" json:"total_repos"`
	TotalStars int      `bson:"total_stars" json:"total_stars"`
	TotalForks int      `bson:"total_forks" json:"total_forks"`
	Repos      []string `bson:"repos" json:"repos"`
	Languages  []string `bson:"languages" json:"languages"`
}

// LanguageStats is the per-language summary row.
type LanguageStats struct {
	Name         string  `bson:"_id" json:"name"`
	TotalRepos   int     `bson:"total_repos" json:"total_repos"`
	TotalStars   int     `bson:"total_stars" json:"total_stars"`
	TotalForks   int     `bson:"total_forks" json:"total_forks"`
	AvgStars     float64 `bson:"avg_stars" json:"avg_stars"`
	UniqueOwners int     `bson:"unique_owners" json:"unique_owners"`
}

// LocationStats is the per-country summary row. TopLanguages holds the three
// most common languages by repository count, ties broken lexicographically.
type LocationStats struct {
	Name         string   `bson:"_id" json:"name"`
	TotalRepos   int      `bson:"total_repos" json:"total_repos"`
	TotalStars   int      `bson:"total_stars" json:"total_stars"`
	AvgStars     float64  `bson:"avg_stars" json:"avg_stars"`
	TopLanguages []string `bson:"top_languages" json:"top_languages"`
	UniqueOwners int      `bson:"unique_owners" json:"unique_owners"`
}

// TopicStats is the per-topic summary row.
type TopicStats struct {
	Name             string   `bson:"_id" json:"name"`
	TotalRepos       int      `bson:"total_repos" json:"total_repos"`
	TotalStars       int      `bson:"total_stars" json:"total_stars"`
	RelatedLanguages []string `bson:"related_languages" json:"related_languages"`
}

// FrameworkStats is the per-framework summary row. Language is a single
// representative language picked from the repos the framework was detected in.
type FrameworkStats struct {
	Name       string `bson:"_id" json:"name"`
	Language   string `bson:"language" json:"language"`
	TotalRepos int    `bson:"total_repos" json:"total_repos"`
	TotalStars int    `bson:"total_stars" json:"total_stars"`
}

// LicenseStats is a simulated per-license summary row produced by the
// enrichment pass. The underlying license assignment is random sampling,
// not real GitHub data.
type LicenseStats struct {
	Name           string   `bson:"_id" json:"name"`
	TotalRepos     int      `bson:"total_repos" json:"total_repos"`
	TotalStars     int      `bson:"total_stars" json:"total_stars"`
	Languages      []string `bson:"languages" json:"languages"`
	PopularityRank int      `bson:"popularity_rank" json:"popularity_rank"`
}

// OrganizationStats is the per-organization summary row, folded from
// repositories whose owner type is Organization.
type OrganizationStats struct {
	Name       string   `bson:"_id" json:"name"`
	TotalRepos int      `bson:"total_repos" json:"total_repos"`
	TotalStars int      `bson:"total_stars" json:"total_stars"`
	TotalForks int      `bson:"total_forks" json:"total_forks"`
	AvgStars   float64  `bson:"avg_stars" json:"avg_stars"`
	Languages  []string `bson:"languages" json:"languages"`
	TopTopics  []string `bson:"top_topics" json:"top_topics"`
	Repos      []string `bson:"repos" json:"repos"`
}

// CityStats is a simulated per-city summary row with map coordinates.
type CityStats struct {
	Name        string         `bson:"_id" json:"name"`
	Country     string         `bson:"country" json:"country"`
	Latitude    float64        `bson:"latitude" json:"latitude"`
	Longitude   float64        `bson:"longitude" json:"longitude"`
	TotalRepos  int            `bson:"total_repos" json:"total_repos"`
	TotalStars  int            `bson:"total_stars" json:"total_stars"`
	AvgStars    float64        `bson:"avg_stars" json:"avg_stars"`
	TopLanguage string         `bson:"top_language" json:"top_language"`
	Languages   map[string]int `bson:"languages" json:"languages"`
}

// ContributorStats is a simulated per-contributor summary row derived from
// the owners collection by the enrichment pass.
type ContributorStats struct {
	Login              string   `bson:"_id" json:"login"`
	TotalContributions int      `bson:"total_contributions" json:"total_contributions"`
	ReposContributed   int      `bson:"repos_contributed" json:"repos_contributed"`
	Repos              []string `bson:"repos" json:"repos"`
	Languages          []string `bson:"languages" json:"languages"`
	ContributionScore  int      `bson:"contribution_score" json:"contribution_score"`
}
