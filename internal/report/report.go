// Package report renders pipeline failures for the user. The message for
// each failure kind comes from a template table injected at construction.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/binaryphile/tonesynth/internal/apperr"
	"github.com/binaryphile/tonesynth/internal/config"
)

// Reporter writes one line per reported failure.
type Reporter struct {
	mu        sync.Mutex
	w         io.Writer
	templates map[apperr.Kind]string
}

// New creates a Reporter. A nil templates map selects the defaults.
func New(w io.Writer, templates map[apperr.Kind]string) *Reporter {
	if templates == nil {
		templates = config.DefaultTemplates()
	}
	return &Reporter{w: w, templates: templates}
}

// Message returns the template for kind, falling back to the Unknown template.
func (r *Reporter) Message(kind apperr.Kind) string {
	if msg, ok := r.templates[kind]; ok {
		return msg
	}
	return r.templates[apperr.Unknown]
}

// Report writes "<Kind>: <template>: <detail>".
func (r *Reporter) Report(kind apperr.Kind, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if detail == "" {
		fmt.Fprintf(r.w, "%s: %s\n", kind, r.Message(kind))
		return
	}
	fmt.Fprintf(r.w, "%s: %s: %s\n", kind, r.Message(kind), detail)
}

// Error reports err under its own kind. It returns err so call sites can
// report and propagate in one step.
func (r *Reporter) Error(err error) error {
	if err == nil {
		return nil
	}
	r.Report(apperr.KindOf(err), err.Error())
	return err
}
