package classify

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/geomonitor/internal/taxonomy"
)

const systemPromptTemplate = `You are an analyst coding international events from news articles, following the PLOVER methodology for international relations.

For the article you receive:

1. Identify every distinct international event involving two or more sovereign states.
   Ignore organizations (EU, NATO, UN), companies, NGOs and sub-national entities as actors.
2. For each event:
   - event_date: YYYY-MM-DD if stated or inferable, otherwise the article publication date.
   - event_location: city or country if mentioned, otherwise "".
   - event_summary: a concise description of the international interaction (at most 400 characters).
   - event_type: a short label such as "sanctions", "summit", "airstrike", "trade agreement".
3. Classify each event with a dimension and a sub_dimension from this table:

%s
4. Assign country roles using ISO 3166-1 alpha-3 codes:
   - actor1: countries driving the action
   - actor1_secondary: countries supporting actor1
   - actor2: countries targeted by the action
   - actor2_secondary: countries aligned with actor2
5. direction: "unilateral" (one side acts upon another), "bilateral" (symmetric interaction between two countries) or "multilateral" (several countries involved).
6. sentiment: a number from -10 to +10
   - -10 to -8: extremely negative (war, invasion)
   - -5 to -3: negative (sanctions, expulsions)
   - 0: neutral
   - +3 to +5: positive (cooperation deals)
   - +7 to +10: extremely positive (peace agreements)
7. confidence_level: your confidence in the coding, from 0 to 1.

Respond with ONLY this JSON object:
{
  "events": [
    {
      "event_date": "YYYY-MM-DD",
      "event_location": "<city or country or ''>",
      "event_summary": "<concise event description>",
      "event_type": "<event type>",
      "dimension": "<dimension>",
      "sub_dimension": "<sub dimension>",
      "actor1": ["ISO3"],
      "actor1_secondary": [],
      "actor2": ["ISO3"],
      "actor2_secondary": [],
      "direction": "unilateral | bilateral | multilateral",
      "sentiment": 0,
      "confidence_level": 0.9
    }
  ]
}

If the article contains no international event, respond with {"events": []}.
Do not invent countries or facts that are not in the article.`

var systemPrompt = fmt.Sprintf(systemPromptTemplate, taxonomy.Table())

// SystemPrompt returns the fixed instruction block sent with every request.
func SystemPrompt() string {
	return systemPrompt
}

// BuildPrompt renders the article as the user message.
func BuildPrompt(a Article, maxChars int) string {
	text := strings.TrimSpace(a.Text)
	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		text = string([]rune(text)[:maxChars]) + "..."
	}
	payload := struct {
		NewsID          int64  `json:"news_id"`
		Title           string `json:"title"`
		PublicationDate string `json:"publication_date,omitempty"`
		SourceCountry   string `json:"source_country,omitempty"`
		Text            string `json:"text"`
	}{a.NewsID, a.Title, a.PublicationDate, a.SourceCountry, text}

	data, _ := json.MarshalIndent(payload, "", "  ")
	return "Analyze this article:\n" + string(data)
}
