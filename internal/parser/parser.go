package parser

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"stmtproc/internal/model"
)

// Parser converts raw statement text for one institution into a ParseResult.
// Parsers are pure: no I/O, no shared state, not required to sort output.
type Parser interface {
	// Parse extracts transactions from the document's text content. Empty or
	// whitespace-only content yields a valid empty result, not an error.
	Parse(content string) (*model.ParseResult, error)
	// Institution returns the display name used in report metadata.
	Institution() string
}

// Handle is what the registry resolves a correspondent to: the institution's
// text parser plus whether AI-based extraction may be attempted for it.
type Handle struct {
	Parser     Parser
	AIEligible bool
}

// Institution returns the display name of the resolved institution.
func (h *Handle) Institution() string {
	return h.Parser.Institution()
}

// Registry maps correspondent identifiers and display names to parser
// handles. Lookup is case-insensitive; IDs and names alias the same
// institution.
type Registry struct {
	entries map[string]*Handle
}

// NewRegistry builds the registry of supported institutions. AI eligibility
// is a property of the institution (only CBA statements ship as PDFs worth
// sending to a model); whether it is used is decided by configuration.
func NewRegistry(log zerolog.Logger) *Registry {
	r := &Registry{entries: make(map[string]*Handle)}

	cba := &Handle{Parser: NewCBAParser(log), AIEligible: true}
	r.register(cba, "133", "CBA", "Commonwealth Bank")

	anz := &Handle{Parser: NewANZParser(log)}
	r.register(anz, "11", "ANZ", "ANZ Bank")

	return r
}

func (r *Registry) register(h *Handle, aliases ...string) {
	for _, a := range aliases {
		r.entries[normalizeAlias(a)] = h
	}
}

// Resolve returns the handle for a correspondent identifier or name, or nil
// when the institution is unknown. Callers treat nil as "skip the document".
func (r *Registry) Resolve(correspondent string) *Handle {
	if correspondent == "" {
		return nil
	}
	return r.entries[normalizeAlias(correspondent)]
}

// Supported lists the known aliases in stable order, for diagnostics.
func (r *Registry) Supported() []string {
	out := make([]string, 0, len(r.entries))
	for alias := range r.entries {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

func normalizeAlias(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
