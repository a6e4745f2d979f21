package presenter

import (
	"embed"
	"html/template"
	"io"
	"io/fs"

	"github.com/asystent-elektryka/audytor/internal/analysis"
	"github.com/asystent-elektryka/audytor/internal/session"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

// PageTemplate is the name of the root template.
const PageTemplate = "page"

// PriceDisclaimer accompanies every price list; the figures are indicative
// and never summed.
const PriceDisclaimer = "Ceny mają charakter poglądowy i mogą ulec zmianie w zależności od dostępności i dystrybutora."

// Tab is one entry of the result view selector.
type Tab struct {
	View   View
	Label  string
	Href   string
	Active bool
}

// Page is everything a template needs to draw one session state.
type Page struct {
	Status     session.Status
	View       View
	Tabs       []Tab
	PreviewURL string
	ImageName  string
	Error      string
	CanRetry   bool
	Result     *analysis.Result
	Disclaimer string
}

// Presenter renders session states as HTML.
type Presenter struct {
	tmpl *template.Template
}

func New() (*Presenter, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	return &Presenter{tmpl: tmpl}, nil
}

// Template exposes the parsed templates, e.g. for gin's HTML renderer.
func (p *Presenter) Template() *template.Template {
	return p.tmpl
}

// Assets returns the static files referenced by the templates.
func Assets() fs.FS {
	sub, err := fs.Sub(assetFS, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page builds the view model for state. view only matters for Ready.
func (p *Presenter) Page(state session.State, view View) Page {
	page := Page{
		Status:     state.Status(),
		View:       view,
		Disclaimer: PriceDisclaimer,
	}
	if img := session.ImageOf(state); img != nil {
		page.PreviewURL = img.PreviewURL()
		page.ImageName = img.Name
	}

	switch st := state.(type) {
	case session.Empty, session.Loaded, session.InFlight:
	case session.Ready:
		page.Result = st.Result
		page.Tabs = tabs(view)
	case session.Failed:
		page.Error = st.Message
		page.CanRetry = st.Retryable()
	default:
		panic("presenter: unknown session state")
	}
	return page
}

func tabs(active View) []Tab {
	out := make([]Tab, 0, len(Views))
	for _, v := range Views {
		out = append(out, Tab{
			View:   v,
			Label:  v.Label(),
			Href:   "/?view=" + string(v),
			Active: v == active,
		})
	}
	return out
}

// Render writes the page for state to w.
func (p *Presenter) Render(w io.Writer, state session.State, view View) error {
	return p.tmpl.ExecuteTemplate(w, PageTemplate, p.Page(state, view))
}
