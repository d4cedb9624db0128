// Package entity defines catalog entity types and the page decoders that map
// service responses onto pagination.Page values.
package entity

// Kind names, as used in request paths and response envelopes.
const (
	KindArtist       = "artist"
	KindRelease      = "release"
	KindReleaseGroup = "release-group"
	KindRecording    = "recording"
	KindWork         = "work"
	KindLabel        = "label"
	KindArea         = "area"
	KindEvent        = "event"
	KindInstrument   = "instrument"
	KindPlace        = "place"
	KindSeries       = "series"
	KindCollection   = "collection"
	KindURL          = "url"
)

// LifeSpan is the active period of an entity.
type LifeSpan struct {
	Begin string `json:"begin,omitempty"`
	End   string `json:"end,omitempty"`
	Ended bool   `json:"ended,omitempty"`
}

// Alias is an alternate name.
type Alias struct {
	Name     string `json:"name"`
	SortName string `json:"sort-name,omitempty"`
	Locale   string `json:"locale,omitempty"`
	Type     string `json:"type,omitempty"`
	Primary  *bool  `json:"primary,omitempty"`
}

// Tag is a folksonomy tag with its vote count.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Genre is a curated genre with its vote count.
type Genre struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Rating is the aggregate user rating.
type Rating struct {
	Value      *float64 `json:"value,omitempty"`
	VotesCount int      `json:"votes-count"`
}

// ArtistCredit is one credited name in an artist credit.
type ArtistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase,omitempty"`
	Artist     Artist `json:"artist"`
}

// Artist is a person, group or other performing entity.
type Artist struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	SortName       string   `json:"sort-name,omitempty"`
	Type           string   `json:"type,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	Country        string   `json:"country,omitempty"`
	Disambiguation string   `json:"disambiguation,omitempty"`
	LifeSpan       LifeSpan `json:"life-span"`
	Aliases        []Alias  `json:"aliases,omitempty"`
	Tags           []Tag    `json:"tags,omitempty"`
	Genres         []Genre  `json:"genres,omitempty"`
	Rating         *Rating  `json:"rating,omitempty"`
	Score          int      `json:"score,omitempty"`
}

// Medium is one disc or other physical/digital medium of a release.
type Medium struct {
	Position   int    `json:"position"`
	Format     string `json:"format,omitempty"`
	Title      string `json:"title,omitempty"`
	TrackCount int    `json:"track-count"`
}

// Release is a concrete issue of a release group.
type Release struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Status         string         `json:"status,omitempty"`
	Date           string         `json:"date,omitempty"`
	Country        string         `json:"country,omitempty"`
	Barcode        string         `json:"barcode,omitempty"`
	Disambiguation string         `json:"disambiguation,omitempty"`
	ArtistCredit   []ArtistCredit `json:"artist-credit,omitempty"`
	ReleaseGroup   *ReleaseGroup  `json:"release-group,omitempty"`
	Media          []Medium       `json:"media,omitempty"`
	Tags           []Tag          `json:"tags,omitempty"`
	Score          int            `json:"score,omitempty"`
}

// ReleaseGroup groups the releases of one logical album, single, etc.
type ReleaseGroup struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	PrimaryType      string         `json:"primary-type,omitempty"`
	SecondaryTypes   []string       `json:"secondary-types,omitempty"`
	FirstReleaseDate string         `json:"first-release-date,omitempty"`
	Disambiguation   string         `json:"disambiguation,omitempty"`
	ArtistCredit     []ArtistCredit `json:"artist-credit,omitempty"`
	Tags             []Tag          `json:"tags,omitempty"`
	Genres           []Genre        `json:"genres,omitempty"`
	Rating           *Rating        `json:"rating,omitempty"`
	Score            int            `json:"score,omitempty"`
}

// Recording is a distinct audio recording.
type Recording struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Length           int            `json:"length,omitempty"`
	Video            bool           `json:"video,omitempty"`
	FirstReleaseDate string         `json:"first-release-date,omitempty"`
	Disambiguation   string         `json:"disambiguation,omitempty"`
	ISRCs            []string       `json:"isrcs,omitempty"`
	ArtistCredit     []ArtistCredit `json:"artist-credit,omitempty"`
	Tags             []Tag          `json:"tags,omitempty"`
	Score            int            `json:"score,omitempty"`
}

// Work is a distinct intellectual or artistic creation.
type Work struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Type           string   `json:"type,omitempty"`
	Language       string   `json:"language,omitempty"`
	Languages      []string `json:"languages,omitempty"`
	ISWCs          []string `json:"iswcs,omitempty"`
	Disambiguation string   `json:"disambiguation,omitempty"`
	Score          int      `json:"score,omitempty"`
}

// Label is a record label or imprint.
type Label struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	SortName       string   `json:"sort-name,omitempty"`
	Type           string   `json:"type,omitempty"`
	Country        string   `json:"country,omitempty"`
	LabelCode      int      `json:"label-code,omitempty"`
	Disambiguation string   `json:"disambiguation,omitempty"`
	LifeSpan       LifeSpan `json:"life-span"`
	Score          int      `json:"score,omitempty"`
}

// Area is a geographic region.
type Area struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	SortName       string   `json:"sort-name,omitempty"`
	Type           string   `json:"type,omitempty"`
	ISO31661Codes  []string `json:"iso-3166-1-codes,omitempty"`
	Disambiguation string   `json:"disambiguation,omitempty"`
	LifeSpan       LifeSpan `json:"life-span"`
	Score          int      `json:"score,omitempty"`
}

// Event is an organised event such as a concert or festival.
type Event struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type,omitempty"`
	Time           string   `json:"time,omitempty"`
	Cancelled      bool     `json:"cancelled,omitempty"`
	Disambiguation string   `json:"disambiguation,omitempty"`
	LifeSpan       LifeSpan `json:"life-span"`
	Score          int      `json:"score,omitempty"`
}

// Instrument is a musical instrument.
type Instrument struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type,omitempty"`
	Description    string `json:"description,omitempty"`
	Disambiguation string `json:"disambiguation,omitempty"`
	Score          int    `json:"score,omitempty"`
}

// Coordinates locate a place.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a venue, studio or other location.
type Place struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Type           string       `json:"type,omitempty"`
	Address        string       `json:"address,omitempty"`
	Area           *Area        `json:"area,omitempty"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	Disambiguation string       `json:"disambiguation,omitempty"`
	Score          int          `json:"score,omitempty"`
}

// Series is an ordered sequence of entities.
type Series struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type,omitempty"`
	Disambiguation string `json:"disambiguation,omitempty"`
	Score          int    `json:"score,omitempty"`
}

// Collection is a user-curated list of entities.
type Collection struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Editor     string `json:"editor,omitempty"`
	EntityType string `json:"entity-type,omitempty"`
	Type       string `json:"type,omitempty"`
}

// URL is an external link entity.
type URL struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
}
