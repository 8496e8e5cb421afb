package enricher

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repobox/repobox/internal/domain"
	"github.com/repobox/repobox/internal/storage/memory"
)

func seedRepos(docs *memory.DocumentStore, n int) {
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("repo%03d", i)
		lang := "Go"
		if i%3 == 0 {
			lang = "Python"
		}
		docs.Repositories[id] = &domain.RepositoryDocument{
			ID:         id,
			Name:       id,
			FullName:   "owner/" + id,
			OwnerLogin: fmt.Sprintf("owner%d", i%7),
			Language:   lang,
			Stars:      i * 3,
			Forks:      i,
		}
	}
}

func TestEnrichLicensesCoversEveryRepo(t *testing.T) {
	docs := memory.NewDocumentStore()
	seedRepos(docs, 40)

	count, err := NewEnricherWithSeed(docs, 1).EnrichLicenses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(docs.Licenses), count)
	assert.NotEmpty(t, docs.Licenses)

	// Every repository lands in exactly one license bucket.
	total := 0
	for name, lic := range docs.Licenses {
		assert.Contains(t, licenseNames, name)
		assert.Equal(t, lic.TotalRepos, lic.PopularityRank)
		total += lic.TotalRepos
	}
	assert.Equal(t, 40, total)
}

func TestEnrichLicensesReproducible(t *testing.T) {
	first := memory.NewDocumentStore()
	second := memory.NewDocumentStore()
	seedRepos(first, 25)
	seedRepos(second, 25)

	_, err := NewEnricherWithSeed(first, 42).EnrichLicenses(context.Background())
	require.NoError(t, err)
	_, err = NewEnricherWithSeed(second, 42).EnrichLicenses(context.Background())
	require.NoError(t, err)

	require.Equal(t, len(first.Licenses), len(second.Licenses))
	for name, lic := range first.Licenses {
		assert.Equal(t, lic, second.Licenses[name])
	}
}

func TestEnrichOrganizationsFoldsRealData(t *testing.T) {
	docs := memory.NewDocumentStore()
	docs.Repositories["1"] = &domain.RepositoryDocument{
		ID: "1", Name: "api", FullName: "acme/api", OwnerLogin: "acme",
		OwnerType: domain.OwnerTypeOrganization, Language: "Go",
		Stars: 10, Forks: 2, Topics: []string{"http", "api"},
	}
	docs.Repositories["2"] = &domain.RepositoryDocument{
		ID: "2", Name: "web", FullName: "acme/web", OwnerLogin: "acme",
		OwnerType: domain.OwnerTypeOrganization, Language: "JavaScript",
		Stars: 5, Forks: 1, Topics: []string{"api"},
	}
	docs.Repositories["3"] = &domain.RepositoryDocument{
		ID: "3", Name: "dotfiles", FullName: "alice/dotfiles", OwnerLogin: "alice",
		OwnerType: domain.OwnerTypeUser, Language: "Shell", Stars: 100,
	}

	count, err := NewEnricherWithSeed(docs, 1).EnrichOrganizations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// User-owned repositories stay out of the organizations collection.
	assert.NotContains(t, docs.Organizations, "alice")

	acme := docs.Organizations["acme"]
	require.NotNil(t, acme)
	assert.Equal(t, 2, acme.TotalRepos)
	assert.Equal(t, 15, acme.TotalStars)
	assert.Equal(t, 3, acme.TotalForks)
	assert.Equal(t, 7.5, acme.AvgStars)
	assert.Equal(t, []string{"Go", "JavaScript"}, acme.Languages)
	assert.Equal(t, []string{"api", "http"}, acme.TopTopics)
	assert.ElementsMatch(t, []string{"api", "web"}, acme.Repos)
}

func TestEnrichCitiesPopulatesFixedSet(t *testing.T) {
	docs := memory.NewDocumentStore()
	seedRepos(docs, 50)

	count, err := NewEnricherWithSeed(docs, 7).EnrichCities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(techCities), count)
	assert.Len(t, docs.Cities, len(techCities))

	for name, info := range techCities {
		city := docs.Cities[name]
		require.NotNil(t, city, name)
		assert.Equal(t, info.country, city.Country)
		assert.Equal(t, info.lat, city.Latitude)
		assert.Equal(t, info.lon, city.Longitude)
		assert.GreaterOrEqual(t, city.TotalRepos, 5)
		assert.LessOrEqual(t, city.TotalRepos, 30)
		assert.NotEmpty(t, city.TopLanguage)
		assert.LessOrEqual(t, len(city.Languages), 5)
	}
}

func TestEnrichCitiesSampleCappedBySmallCorpus(t *testing.T) {
	docs := memory.NewDocumentStore()
	seedRepos(docs, 3)

	_, err := NewEnricherWithSeed(docs, 7).EnrichCities(context.Background())
	require.NoError(t, err)

	for _, city := range docs.Cities {
		assert.LessOrEqual(t, city.TotalRepos, 3)
		assert.Greater(t, city.TotalRepos, 0)
	}
}

func TestEnrichCitiesSkipsEmptyCorpus(t *testing.T) {
	docs := memory.NewDocumentStore()

	count, err := NewEnricherWithSeed(docs, 7).EnrichCities(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, docs.Cities)
}

func TestEnrichContributorsMirrorsOwners(t *testing.T) {
	docs := memory.NewDocumentStore()
	seedRepos(docs, 20)
	docs.Owners["owner0"] = &domain.OwnerStats{Login: "owner0", Languages: []string{"Go", "Python"}}
	docs.Owners["owner1"] = &domain.OwnerStats{Login: "owner1", Languages: []string{"Go"}}

	count, err := NewEnricherWithSeed(docs, 3).EnrichContributors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, docs.Contributors, 2)

	for login, contrib := range docs.Contributors {
		assert.Equal(t, login, contrib.Login)
		assert.GreaterOrEqual(t, contrib.TotalContributions, 1)
		assert.LessOrEqual(t, contrib.TotalContributions, 100)
		assert.Equal(t, len(contrib.Repos), contrib.ReposContributed)
		assert.Equal(t, contrib.TotalContributions*contrib.ReposContributed, contrib.ContributionScore)
		assert.Equal(t, docs.Owners[login].Languages, contrib.Languages)
	}
}
