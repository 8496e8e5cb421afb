package domain

import "time"

// CollectionRun records one ingestion run across the configured languages.
type CollectionRun struct {
	ID               string    `bson:"_id" json:"id"`
	Languages        []string  `bson:"languages" json:"languages"`
	Country          string    `bson:"country" json:"country"`
	ReposPerLanguage int       `bson:"repos_per_language" json:"repos_per_language"`
	TotalRepos       int       `bson:"total_repos" json:"total_repos"`
	FailedLanguages  []string  `bson:"failed_languages" json:"failed_languages"`
	Status           string    `bson:"status" json:"status"` // "in_progress", "completed"
	StartedAt        time.Time `bson:"started_at" json:"started_at"`
	FinishedAt       time.Time `bson:"finished_at" json:"finished_at"`
}

// UserProfile is a single user's profile plus totals over their owned
// repositories, collected by the profile command.
type UserProfile struct {
	Login       string    `bson:"_id" json:"login"`
	Name        string    `bson:"name" json:"name"`
	Type        OwnerType `bson:"type" json:"type"`
	AvatarURL   string    `bson:"avatar_url" json:"avatar_url"`
	Bio         string    `bson:"bio" json:"bio"`
	Company     string    `bson:"company" json:"company"`
	Location    string    `bson:"location" json:"location"`
	Blog        string    `bson:"blog" json:"blog"`
	Followers   int       `bson:"followers" json:"followers"`
	Following   int       `bson:"following" json:"following"`
	PublicRepos int       `bson:"public_repos" json:"public_repos"`
	TotalRepos  int       `bson:"total_repos" json:"total_repos"`
	TotalStars  int       `bson:"total_stars" json:"total_stars"`
	TotalForks  int       `bson:"total_forks" json:"total_forks"`
	Languages   []string  `bson:"languages" json:"languages"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
