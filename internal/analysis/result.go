package analysis

// Result is the structured switchboard audit returned by the model. The
// JSON names are the keys declared in the response schema.
type Result struct {
	Title               string          `json:"tytul" yaml:"tytul"`
	Description         string          `json:"opis" yaml:"opis"`
	Details             []string        `json:"detale" yaml:"detale"`
	TechnicalAssessment string          `json:"ocena_techniczna" yaml:"ocena_techniczna"`
	BuildQuality        string          `json:"jakosc_budowy" yaml:"jakosc_budowy"`
	Components          []Component     `json:"komponenty" yaml:"komponenty"`
	PriceEstimates      []PriceEstimate `json:"ceny_szacunkowe" yaml:"ceny_szacunkowe"`
	Offer               Offer           `json:"oferta" yaml:"oferta"`
	EmailDraft          string          `json:"email_draft" yaml:"email_draft"`
	StandardsCompliance string          `json:"zgodnosc_z_normami" yaml:"zgodnosc_z_normami"`
	SafetyClause        string          `json:"klauzula_bezpieczenstwa" yaml:"klauzula_bezpieczenstwa"`
}

// Component is one protective device or apparatus identified on the photo.
type Component struct {
	Name        string `json:"nazwa" yaml:"nazwa"`
	Type        string `json:"typ" yaml:"typ"`
	Description string `json:"opis" yaml:"opis"`
}

// PriceEstimate is an indicative market price. Price is a display string,
// not a number.
type PriceEstimate struct {
	Item   string `json:"element" yaml:"element"`
	Price  string `json:"cena" yaml:"cena"`
	Source string `json:"zrodlo,omitempty" yaml:"zrodlo,omitempty"`
}

type Offer struct {
	KeyPoints       []string `json:"punkty_kluczowe" yaml:"punkty_kluczowe"`
	Recommendations []string `json:"rekomendacje" yaml:"rekomendacje"`
}
