package domain

import (
	"strings"
	"time"
)

// OwnerType discriminates User and Organization owners. The two kinds share
// the same record shape; OwnerType is the tag, not a subclass.
type OwnerType string

const (
	OwnerTypeUser         OwnerType = "User"
	OwnerTypeOrganization OwnerType = "Organization"
)

// Owner is the account a repository belongs to.
type Owner struct {
	Login     string    `json:"login"`
	Type      OwnerType `json:"type"`
	AvatarURL string    `json:"avatar_url"`
	URL       string    `json:"url"`
	Location  string    `json:"location,omitempty"`
}

// Repository is a GitHub repository as returned by the search API.
type Repository struct {
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Owner         Owner     `json:"owner"`
	Description   string    `json:"description"`
	Language      string    `json:"language"`
	Topics        []string  `json:"topics"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	Watchers      int       `json:"watchers"`
	OpenIssues    int       `json:"open_issues"`
	Size          int       `json:"size"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	IsFork        bool      `json:"is_fork"`
	DefaultBranch string    `json:"default_branch"`
	HasWiki       bool      `json:"has_wiki"`
	HasIssues     bool      `json:"has_issues"`
}

// DocumentID is the document-store key for the repository: the full name
// with slashes replaced, so it is safe as a primary key in every store.
func (r *Repository) DocumentID() string {
	return strings.ReplaceAll(r.FullName, "/", "_")
}

// SearchText is the text the keyword matchers run against: topics joined
// with the description, lowercased.
func (r *Repository) SearchText() string {
	return strings.ToLower(strings.Join(r.Topics, " ") + " " + r.Description)
}

// RepositoryDocument is the flat per-repository record kept in the document
// store. Derived fields (frameworks, location) are computed at write time.
type RepositoryDocument struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	FullName      string    `bson:"full_name" json:"full_name"`
	Stars         int       `bson:"stars" json:"stars"`
	Forks         int       `bson:"forks" json:"forks"`
	Watchers      int       `bson:"watchers" json:"watchers"`
	OpenIssues    int       `bson:"open_issues" json:"open_issues"`
	Size          int       `bson:"size" json:"size"`
	Language      string    `bson:"language" json:"language"`
	Topics        []string  `bson:"topics" json:"topics"`
	Frameworks    []string  `bson:"frameworks" json:"frameworks"`
	Location      string    `bson:"location" json:"location"`
	OwnerLogin    string    `bson:"owner_login" json:"owner_login"`
	OwnerType     OwnerType `bson:"owner_type" json:"owner_type"`
	Description   string    `bson:"description" json:"description"`
	URL           string    `bson:"url" json:"url"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
	IsFork        bool      `bson:"is_fork" json:"is_fork"`
	DefaultBranch string    `bson:"default_branch" json:"default_branch"`
	CollectedAt   time.Time `bson:"collected_at" json:"collected_at"`
}

// LocationGlobal is the sentinel location assigned when no country filter
// is configured for a collection run.
const LocationGlobal = "Global"
