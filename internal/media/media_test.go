package media_test

import (
	"encoding/json"
	"strings"
	"testing"

	"fetcharr/internal/media"
)

func TestUnmarshalKeepsUnknownFields(t *testing.T) {
	payload := `{
		"title": "Dune",
		"year": 2021,
		"tmdbId": 438631,
		"monitored": false,
		"isAvailable": true,
		"images": [{"coverType": "poster"}],
		"runtime": 155
	}`

	var item media.CatalogItem
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if item.Title != "Dune" || item.TMDBID != 438631 {
		t.Fatalf("unexpected typed fields: %#v", item)
	}
	if _, ok := item.Extra["runtime"]; !ok {
		t.Fatalf("expected runtime preserved in extra bag, got %v", item.Extra)
	}
	if _, ok := item.Extra["title"]; ok {
		t.Fatal("typed field leaked into extra bag")
	}

	out, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(out)
	for _, want := range []string{`"runtime":155`, `"title":"Dune"`, `"images"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("marshaled payload missing %s: %s", want, text)
		}
	}
}

func TestRegisteredPerType(t *testing.T) {
	movie := media.CatalogItem{Monitored: true}
	if !movie.Registered(media.TypeMovie) {
		t.Fatal("monitored movie should be registered")
	}
	if movie.Registered(media.TypeShow) {
		t.Fatal("show without service id should not be registered")
	}

	show := media.CatalogItem{ServiceID: 42}
	if !show.Registered(media.TypeShow) {
		t.Fatal("show with service id should be registered")
	}
}

func TestAvailableNow(t *testing.T) {
	if (media.CatalogItem{Status: "upcoming"}).AvailableNow(media.TypeShow) {
		t.Fatal("upcoming show should not be available")
	}
	if !(media.CatalogItem{Status: "continuing"}).AvailableNow(media.TypeShow) {
		t.Fatal("continuing show should be available")
	}
	if !(media.CatalogItem{Available: true}).AvailableNow(media.TypeMovie) {
		t.Fatal("available movie should be available")
	}
}

func TestFinished(t *testing.T) {
	movie := media.CatalogItem{HasFile: true}
	if !movie.Finished(media.TypeMovie) {
		t.Fatal("movie with file should be finished")
	}

	show := media.CatalogItem{Seasons: []media.Season{
		{SeasonNumber: 1, Statistics: media.SeasonStatistics{PercentOfEpisodes: 60}},
		{SeasonNumber: 2, Statistics: media.SeasonStatistics{PercentOfEpisodes: 100}},
	}}
	if show.Finished(media.TypeShow) {
		t.Fatal("show at 60% season one should not be finished")
	}
	show.Seasons[0].Statistics.PercentOfEpisodes = 100
	if !show.Finished(media.TypeShow) {
		t.Fatal("show at 100% season one should be finished")
	}
}

func TestParseType(t *testing.T) {
	if got, ok := media.ParseType(" movie "); !ok || got != media.TypeMovie {
		t.Fatalf("ParseType movie: got %q ok=%v", got, ok)
	}
	if _, ok := media.ParseType("album"); ok {
		t.Fatal("ParseType should reject unknown types")
	}
}
