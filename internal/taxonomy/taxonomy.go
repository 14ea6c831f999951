// Package taxonomy holds the fixed dimension and sub-dimension vocabulary
// used to classify international events.
package taxonomy

import "strings"

// Dimension names.
const (
	PoliticalRelations = "Political Relations"
	MaterialConflict   = "Material Conflict"
	EconomicRelations  = "Economic Relations"
	Other              = "Other"
)

// Direction values.
const (
	Unilateral   = "unilateral"
	Bilateral    = "bilateral"
	Multilateral = "multilateral"
)

// Actor roles.
const (
	RoleActor1          = "actor1"
	RoleActor1Secondary = "actor1_secondary"
	RoleActor2          = "actor2"
	RoleActor2Secondary = "actor2_secondary"
)

// Roles lists actor roles in canonical order.
var Roles = []string{RoleActor1, RoleActor1Secondary, RoleActor2, RoleActor2Secondary}

// Directions lists valid direction values.
var Directions = []string{Unilateral, Bilateral, Multilateral}

// Entry is one (dimension, sub-dimension) pair of the reference taxonomy.
type Entry struct {
	Dimension    string
	SubDimension string
	Description  string
}

// Entries is the reference taxonomy in display order.
var Entries = []Entry{
	{PoliticalRelations, "political", "General political interactions"},
	{PoliticalRelations, "government", "Government-level interactions"},
	{PoliticalRelations, "election", "Electoral processes"},
	{PoliticalRelations, "legislative", "Legislative actions"},
	{PoliticalRelations, "diplomatic", "Diplomatic relations"},
	{PoliticalRelations, "legal", "Legal proceedings"},
	{PoliticalRelations, "refugee", "Refugee-related policies"},
	{MaterialConflict, "military", "Military actions and defense"},
	{MaterialConflict, "terrorism", "Terrorism-related events"},
	{MaterialConflict, "cbrn", "Chemical, biological, radiological, nuclear"},
	{MaterialConflict, "cyber", "Cyber warfare and digital security"},
	{EconomicRelations, "economic", "General economic interactions"},
	{EconomicRelations, "trade", "Trade agreements and tariffs"},
	{EconomicRelations, "aid", "Foreign and humanitarian aid"},
	{EconomicRelations, "capital_flows", "Investment and financial transfers"},
	{EconomicRelations, "strategic_economic", "Strategic economic policies"},
	{EconomicRelations, "financial_monetary", "Financial and monetary policy"},
	{EconomicRelations, "development", "Development projects"},
	{EconomicRelations, "taxation_fiscal", "Tax and fiscal matters"},
	{EconomicRelations, "investment", "Foreign direct investment"},
	{EconomicRelations, "resources", "Natural resources and energy"},
	{EconomicRelations, "labour_migration", "Labor migration"},
	{EconomicRelations, "technology_transfer", "Technology and innovation"},
	{Other, "resource", "Resource-related events"},
	{Other, "disease", "Health crises and pandemics"},
	{Other, "disaster", "Natural disasters"},
	{Other, "historical", "Historical references"},
	{Other, "hypothetical", "Speculative events"},
	{Other, "culture", "Cultural exchanges"},
}

// Dimensions returns the four dimensions in display order.
func Dimensions() []string {
	return []string{PoliticalRelations, MaterialConflict, EconomicRelations, Other}
}

// SubDimensions returns the allowed sub-dimensions for a dimension.
func SubDimensions(dimension string) []string {
	var out []string
	for _, e := range Entries {
		if e.Dimension == dimension {
			out = append(out, e.SubDimension)
		}
	}
	return out
}

// CanonicalDimension matches a dimension case-insensitively and returns
// its canonical spelling.
func CanonicalDimension(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, d := range Dimensions() {
		if strings.EqualFold(d, s) {
			return d, true
		}
	}
	return "", false
}

// CanonicalSubDimension returns the canonical sub-dimension when s belongs
// to dimension. Spaces and hyphens are treated as underscores.
func CanonicalSubDimension(dimension, s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	if s == "" {
		return "", false
	}
	for _, e := range Entries {
		if e.Dimension == dimension && e.SubDimension == s {
			return e.SubDimension, true
		}
	}
	return "", false
}

// ValidRole reports whether role is one of the four actor roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ValidDirection reports whether d is a known direction.
func ValidDirection(d string) bool {
	for _, v := range Directions {
		if v == d {
			return true
		}
	}
	return false
}

// Table renders the taxonomy as a Markdown table for prompts and docs.
func Table() string {
	var b strings.Builder
	b.WriteString("| Dimension | Subdimensions |\n|-----------|---------------|\n")
	for _, d := range Dimensions() {
		b.WriteString("| " + d + " | " + strings.Join(SubDimensions(d), ", ") + " |\n")
	}
	return b.String()
}
