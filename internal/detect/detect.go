// Package detect implements keyword-based detection of frameworks,
// dependencies and cities from repository free text. Detection is plain
// substring matching against ordered lookup tables: false negatives are
// expected and a keyword matching inside an unrelated word is a known
// false-positive source. Matches are taken in table order, so table order
// is part of the contract.
package detect

import "strings"

// Match is one (name, language) detection result.
type Match struct {
	Name     string
	Language string
}

// keyword maps a lowercase pattern to a detection result.
type keyword struct {
	pattern  string
	name     string
	language string
}

// maxMatches caps frameworks and dependencies per repository.
const maxMatches = 3

var frameworkTable = []keyword{
	{"django", "Django", "Python"},
	{"flask", "Flask", "Python"},
	{"fastapi", "Fastapi", "Python"},
	{"react", "React", "JavaScript"},
	{"vue", "Vue", "JavaScript"},
	{"angular", "Angular", "JavaScript"},
	{"express", "Express", "JavaScript"},
	{"nextjs", "Nextjs", "JavaScript"},
	{"nest", "Nest", "TypeScript"},
	{"spring", "Spring", "Java"},
	{"laravel", "Laravel", "PHP"},
	{"rails", "Rails", "Ruby"},
	{"gin", "Gin", "Go"},
	{"fiber", "Fiber", "Go"},
	{"actix", "Actix", "Rust"},
	{"rocket", "Rocket", "Rust"},
	{"asp.net", "Asp.Net", "C#"},
	{"blazor", "Blazor", "C#"},
}

var dependencyTable = []keyword{
	{"numpy", "numpy", "Python"},
	{"pandas", "pandas", "Python"},
	{"tensorflow", "tensorflow", "Python"},
	{"pytorch", "pytorch", "Python"},
	{"scikit-learn", "scikit-learn", "Python"},
	{"matplotlib", "matplotlib", "Python"},
	{"axios", "axios", "JavaScript"},
	{"lodash", "lodash", "JavaScript"},
	{"moment", "moment", "JavaScript"},
	{"redux", "redux", "JavaScript"},
	{"webpack", "webpack", "JavaScript"},
	{"babel", "babel", "JavaScript"},
	{"junit", "junit", "Java"},
	{"mockito", "mockito", "Java"},
	{"hibernate", "hibernate", "Java"},
	{"tokio", "tokio", "Rust"},
	{"serde", "serde", "Rust"},
	{"clap", "clap", "Rust"},
	{"gin", "gin", "Go"},
	{"gorm", "gorm", "Go"},
	{"cobra", "cobra", "Go"},
}

// cityEntry maps free-text location patterns to a canonical city name.
type cityEntry struct {
	name     string
	patterns []string
}

var cityTable = []cityEntry{
	{"San Francisco", []string{"san francisco", "sf, ca"}},
	{"New York", []string{"new york", "nyc", "ny"}},
	{"London", []string{"london"}},
	{"Paris", []string{"paris"}},
	{"Berlin", []string{"berlin"}},
	{"Tokyo", []string{"tokyo"}},
	{"Beijing", []string{"beijing"}},
	{"Shanghai", []string{"shanghai"}},
	{"Seattle", []string{"seattle"}},
	{"Austin", []string{"austin"}},
	{"Boston", []string{"boston"}},
	{"Chicago", []string{"chicago"}},
	{"Los Angeles", []string{"los angeles", "la, ca"}},
	{"Toronto", []string{"toronto"}},
	{"Vancouver", []string{"vancouver"}},
	{"Sydney", []string{"sydney"}},
	{"Melbourne", []string{"melbourne"}},
	{"Singapore", []string{"singapore"}},
	{"Bangalore", []string{"bangalore", "bengaluru"}},
	{"Mumbai", []string{"mumbai"}},
	{"Tel Aviv", []string{"tel aviv"}},
	{"Amsterdam", []string{"amsterdam"}},
	{"Stockholm", []string{"stockholm"}},
	{"Copenhagen", []string{"copenhagen"}},
}

// Frameworks returns up to 3 frameworks mentioned in text, in table order.
// text must already be lowercased (see domain.Repository.SearchText).
func Frameworks(text string) []Match {
	return matchTable(frameworkTable, text)
}

// Dependencies returns up to 3 dependencies mentioned in text, in table order.
func Dependencies(text string) []Match {
	return matchTable(dependencyTable, text)
}

// City returns the canonical city for a free-text owner location, first
// match wins. The empty string means no city was recognized.
func City(location string) string {
	if location == "" {
		return ""
	}
	lower := strings.ToLower(location)
	for _, entry := range cityTable {
		for _, pattern := range entry.patterns {
			if strings.Contains(lower, pattern) {
				return entry.name
			}
		}
	}
	return ""
}

func matchTable(table []keyword, text string) []Match {
	var matches []Match
	for _, kw := range table {
		if strings.Contains(text, kw.pattern) {
			matches = append(matches, Match{Name: kw.name, Language: kw.language})
			if len(matches) == maxMatches {
				break
			}
		}
	}
	return matches
}

// Names extracts just the names from a list of matches.
func Names(matches []Match) []string {
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Name)
	}
	return names
}
