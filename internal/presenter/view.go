package presenter

// View selects which part of a ready result is shown.
type View string

const (
	ViewTechnical View = "technical"
	ViewOffer     View = "offer"
	ViewEmail     View = "email"
)

// Views lists the result views in tab order.
var Views = []View{ViewTechnical, ViewOffer, ViewEmail}

// ParseView maps a query value onto a view. Anything unknown, including the
// empty string, selects the technical view.
func ParseView(s string) View {
	switch View(s) {
	case ViewOffer:
		return ViewOffer
	case ViewEmail:
		return ViewEmail
	default:
		return ViewTechnical
	}
}

// Label is the Polish tab caption.
func (v View) Label() string {
	switch v {
	case ViewOffer:
		return "Oferta i Ceny"
	case ViewEmail:
		return "Wiadomość E-mail"
	default:
		return "Analiza Techniczna"
	}
}
