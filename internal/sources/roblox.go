package sources

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

const robloxGameURL = "https://www.roblox.com/games/"

// robloxExtractor reads the omni-search JSON response
type robloxExtractor struct{}

func (*robloxExtractor) Kind() ExtractorKind { return ExtractorRoblox }

func (*robloxExtractor) Extract(body []byte) ([]RawRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("roblox: response is not valid JSON")
	}

	var out []RawRecord
	gjson.GetBytes(body, "searchResults").ForEach(func(_, group gjson.Result) bool {
		if t := group.Get("contentGroupType"); t.Exists() && t.String() != "Game" {
			return true
		}
		group.Get("contents").ForEach(func(_, game gjson.Result) bool {
			name := game.Get("name").String()
			if name == "" {
				return true
			}

			rec := RawRecord{
				Title:       name,
				Description: game.Get("description").String(),
				Price:       "Free",
				Platforms:   []string{"Roblox"},
				Votes: &Votes{
					Up:   game.Get("totalUpVotes").Int(),
					Down: game.Get("totalDownVotes").Int(),
				},
			}
			if placeID := game.Get("rootPlaceId").Int(); placeID > 0 {
				link := robloxGameURL + strconv.FormatInt(placeID, 10)
				rec.URL = link
				rec.PlayURL = link
			}
			if genre := game.Get("genre").String(); genre != "" && genre != "All" {
				rec.Genres = []string{genre}
			}

			out = append(out, rec)
			return true
		})
		return true
	})
	return out, nil
}
