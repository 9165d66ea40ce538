package sources

// Definition describes where and how a source is fetched
type Definition struct {
	// Name is the canonical source name
	Name string

	// Kind selects the extraction strategy
	Kind ExtractorKind

	// URL is the listing page or API endpoint
	URL string

	// BaseURL resolves relative links found on the page
	BaseURL string

	// MaxRecords caps how many listings are kept per fetch
	MaxRecords int

	// Accept is the Accept header sent with the request
	Accept string

	// DisplayPlatform is the platform tag used when a listing carries none
	DisplayPlatform string
}

const (
	acceptHTML = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"
	acceptJSON = "application/json"
)

// defaultDefinitions lists every supported source in allow-list order
var defaultDefinitions = []Definition{
	{
		Name:            SourceSteam,
		Kind:            ExtractorSteam,
		URL:             "https://store.steampowered.com/search/?tags=1667&category1=998&ndl=1",
		BaseURL:         "https://store.steampowered.com",
		MaxRecords:      25,
		Accept:          acceptHTML,
		DisplayPlatform: "PC",
	},
	{
		Name:            SourcePlayStation,
		Kind:            ExtractorPlayStation,
		URL:             "https://store.playstation.com/en-us/search/horror",
		BaseURL:         "https://store.playstation.com",
		MaxRecords:      20,
		Accept:          acceptHTML,
		DisplayPlatform: "PlayStation",
	},
	{
		Name:            SourceXbox,
		Kind:            ExtractorXbox,
		URL:             "https://www.xbox.com/en-US/games/browse?Genre=Horror",
		BaseURL:         "https://www.xbox.com",
		MaxRecords:      20,
		Accept:          acceptHTML,
		DisplayPlatform: "Xbox",
	},
	{
		Name:            SourceNintendo,
		Kind:            ExtractorNintendo,
		URL:             "https://www.nintendo.com/us/search/?q=horror&p=1&cat=gme&sort=df",
		BaseURL:         "https://www.nintendo.com",
		MaxRecords:      15,
		Accept:          acceptHTML,
		DisplayPlatform: "Nintendo Switch",
	},
	{
		Name:            SourceRoblox,
		Kind:            ExtractorRoblox,
		URL:             "https://apis.roblox.com/search-api/omni-search?searchQuery=horror&pageType=all&sessionId=horror-aggregator",
		BaseURL:         "https://www.roblox.com",
		MaxRecords:      20,
		Accept:          acceptJSON,
		DisplayPlatform: "Roblox",
	},
}

// DefaultDefinitions returns a copy of the built-in source definitions
func DefaultDefinitions() []Definition {
	return append([]Definition(nil), defaultDefinitions...)
}

// DefaultDefinition returns the built-in definition for a canonical name
func DefaultDefinition(name string) (Definition, bool) {
	for _, d := range defaultDefinitions {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// SupportedNames returns the canonical names in allow-list order
func SupportedNames() []string {
	names := make([]string, 0, len(defaultDefinitions))
	for _, d := range defaultDefinitions {
		names = append(names, d.Name)
	}
	return names
}
