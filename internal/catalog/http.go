package catalog

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/algotracker/pkg/http/errors"
)

// HTTPHandler exposes the read-only catalog.
type HTTPHandler struct {
	catalog *Catalog
	logger  zerolog.Logger
	started time.Time
	now     func() time.Time
}

// NewHTTPHandler constructs a catalog HTTP handler. Quote rotation is measured
// from construction time.
func NewHTTPHandler(catalog *Catalog, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		catalog: catalog,
		logger:  logger.With().Str("component", "catalog_http").Logger(),
		started: time.Now(),
		now:     time.Now,
	}
}

// AlgorithmCard is the landing-page summary of an algorithm.
type AlgorithmCard struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Tier     Tier     `json:"tier"`
	When     string   `json:"when"`
	Examples []string `json:"examples"`
}

type QuoteSetView struct {
	Name         string  `json:"name"`
	DurationMS   int64   `json:"durationMs"`
	Quotes       []Quote `json:"quotes"`
	CurrentIndex int     `json:"currentIndex"`
	Current      Quote   `json:"current"`
}

type LandingResponse struct {
	Hero         Hero            `json:"hero"`
	Steps        []ApproachStep  `json:"steps"`
	Foundational []AlgorithmCard `json:"foundational"`
	Advanced     []AlgorithmCard `json:"advanced"`
	Timeline     []TimelineEntry `json:"timeline"`
	QuoteSets    []QuoteSetView  `json:"quoteSets"`
}

// Landing handles GET /v1/landing
func (h *HTTPHandler) Landing(w http.ResponseWriter, r *http.Request) {
	elapsed := h.now().Sub(h.started)

	sets := h.catalog.QuoteSets()
	views := make([]QuoteSetView, 0, len(sets))
	for _, set := range sets {
		idx, quote := set.Current(elapsed)
		views = append(views, QuoteSetView{
			Name:         set.Name,
			DurationMS:   set.Duration.Milliseconds(),
			Quotes:       set.Quotes,
			CurrentIndex: idx,
			Current:      quote,
		})
	}

	httperrors.RespondJSON(w, http.StatusOK, LandingResponse{
		Hero:         h.catalog.Hero(),
		Steps:        h.catalog.Steps(),
		Foundational: toCards(h.catalog.Algorithms(TierFoundational)),
		Advanced:     toCards(h.catalog.Algorithms(TierAdvanced)),
		Timeline:     h.catalog.Timeline(),
		QuoteSets:    views,
	})
}

// List handles GET /v1/algorithms?tier=foundational|advanced
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	tier := Tier(r.URL.Query().Get("tier"))
	if tier != "" && tier != TierFoundational && tier != TierAdvanced {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "tier must be foundational or advanced")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"algorithms": toCards(h.catalog.Algorithms(tier)),
	})
}

// Get handles GET /v1/algorithms/{slug}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	algo, ok := h.catalog.Lookup(slug)
	if !ok {
		h.logger.Debug().Str("slug", slug).Msg("unknown algorithm requested")
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Algorithm not found")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, algo)
}

func toCards(algos []Algorithm) []AlgorithmCard {
	cards := make([]AlgorithmCard, 0, len(algos))
	for _, a := range algos {
		cards = append(cards, AlgorithmCard{
			Slug:     a.Slug,
			Title:    a.Title,
			Tier:     a.Tier,
			When:     a.When,
			Examples: a.Examples,
		})
	}
	return cards
}
