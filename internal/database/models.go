package database

// Classification states of a stored article.
const (
	StatusPending    = "pending"
	StatusClassified = "classified"
	StatusFailed     = "failed"
)

// Article represents a stored news article.
type Article struct {
	NewsID               int64   `json:"news_id"`
	Title                string  `json:"news_title"`
	Text                 *string `json:"news_text"`
	Summary              *string `json:"article_summary"`
	PublicationDate      *string `json:"publication_date"`
	SourceURL            string  `json:"source_url"`
	SourceDomain         *string `json:"source_domain"`
	SourceCountry        *string `json:"source_country"`
	Language             *string `json:"language"`
	LanguageDetected     *string `json:"language_detected"`
	DateScraped          string  `json:"date_scraped"`
	ClassificationStatus string  `json:"classification_status"`
}

// NewArticle holds the fields supplied when storing an article.
type NewArticle struct {
	Title            string
	Text             string
	Summary          *string
	PublicationDate  *string
	SourceURL        string
	SourceDomain     *string
	SourceCountry    *string
	Language         string
	LanguageDetected *string
}

// Actor links a country to an event in one of the four roles.
type Actor struct {
	ISO3 string `json:"actor_iso3"`
	Role string `json:"actor_role"`
}

// Event is one classified interaction extracted from an article.
type Event struct {
	EventID      string   `json:"event_id"`
	NewsID       int64    `json:"news_id"`
	Seq          int      `json:"seq"`
	Summary      *string  `json:"event_summary"`
	EventDate    *string  `json:"event_date"`
	Location     *string  `json:"event_location"`
	Dimension    string   `json:"dimension"`
	EventType    *string  `json:"event_type"`
	SubDimension *string  `json:"sub_dimension"`
	Direction    *string  `json:"direction"`
	Sentiment    *float64 `json:"sentiment"`
	Confidence   *float64 `json:"confidence_level"`
	Actors       []Actor  `json:"actors"`
}

// NewEvent holds the fields supplied when storing an event. The id and
// sequence number are assigned by the store.
type NewEvent struct {
	Summary      string
	EventDate    *string
	Location     *string
	EventType    *string
	Dimension    string
	SubDimension *string
	Direction    string
	Sentiment    float64
	Confidence   *float64
	Actors       []Actor
}

// ExportRow is one event joined with its article and actor lists.
type ExportRow struct {
	NewsID          int64    `json:"news_id"`
	NewsTitle       string   `json:"news_title"`
	PublicationDate *string  `json:"publication_date"`
	SourceURL       string   `json:"source_url"`
	SourceCountry   *string  `json:"source_country"`
	EventID         string   `json:"event_id"`
	EventSummary    *string  `json:"event_summary"`
	EventDate       *string  `json:"event_date"`
	Dimension       string   `json:"dimension"`
	SubDimension    *string  `json:"sub_dimension"`
	Direction       *string  `json:"direction"`
	Sentiment       *float64 `json:"sentiment"`
	Confidence      *float64 `json:"confidence_level"`
	Actor1          []string `json:"actor1"`
	Actor1Secondary []string `json:"actor1_secondary"`
	Actor2          []string `json:"actor2"`
	Actor2Secondary []string `json:"actor2_secondary"`
}

// ArticleFilter narrows ListArticles.
type ArticleFilter struct {
	Status  string
	Country string
	Limit   int
	Offset  int
}

// EventFilter narrows ListEvents.
type EventFilter struct {
	Dimension    string
	SubDimension string
	Direction    string
	Country      string
	NewsID       int64
	Limit        int
	Offset       int
}

// DimensionStat aggregates events of one dimension.
type DimensionStat struct {
	Dimension    string   `json:"dimension"`
	Events       int      `json:"events"`
	AvgSentiment *float64 `json:"avg_sentiment"`
}

// CountryStat counts event participation per country.
type CountryStat struct {
	ISO3   string `json:"iso3"`
	Events int    `json:"events"`
}

// Stats holds aggregate statistics.
type Stats struct {
	TotalArticles    int             `json:"total_articles"`
	TotalEvents      int             `json:"total_events"`
	TotalActors      int             `json:"total_actor_links"`
	ArticlesByStatus map[string]int  `json:"articles_by_status"`
	EventsPerArticle float64         `json:"events_per_article"`
	AvgSentiment     *float64        `json:"avg_sentiment"`
	ByDimension      []DimensionStat `json:"by_dimension"`
	ByDirection      map[string]int  `json:"by_direction"`
	TopCountries     []CountryStat   `json:"top_countries"`
	LastRun          *Run            `json:"last_run,omitempty"`
}

// RunReport carries the counters of a finished ingestion run.
type RunReport struct {
	Fetched              int
	Rejected             int
	Invalid              int
	StoredWithEvents     int
	StoredZeroEvents     int
	FailedClassification int
	FailedTranslation    int
	AlreadyIngested      int
	Events               int
	Status               string
	Error                string
}

// Run is one row of the ingestion history.
type Run struct {
	RunID                string  `json:"run_id"`
	StartedAt            string  `json:"started_at"`
	FinishedAt           *string `json:"finished_at"`
	Status               string  `json:"status"`
	Fetched              int     `json:"fetched"`
	Rejected             int     `json:"rejected"`
	Invalid              int     `json:"invalid"`
	StoredWithEvents     int     `json:"stored_with_events"`
	StoredZeroEvents     int     `json:"stored_zero_events"`
	FailedClassification int     `json:"failed_classification"`
	FailedTranslation    int     `json:"failed_translation"`
	AlreadyIngested      int     `json:"already_ingested"`
	Events               int     `json:"events"`
	Error                *string `json:"error"`
}

// TaxonomyPair is one row of the dimensions_taxonomy table.
type TaxonomyPair struct {
	Dimension    string  `json:"dimension"`
	SubDimension string  `json:"sub_dimension"`
	Description  *string `json:"description"`
}

// QueryResult is the tabular output of ReadOnlyQuery.
type QueryResult struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	Truncated bool             `json:"truncated"`
}
