package fetching

import (
	"context"

	"github.com/veridianlabs/trustlens/pkg/models"
)

// Interactor is the minimal surface the challenge mitigator needs to poke at
// a live rendered page. Strategies without a live page return a nil
// Interactor.
type Interactor interface {
	Click(ctx context.Context, selector string) error
	Content(ctx context.Context) (string, error)
}

// Strategy is one way of turning a URL into raw markup. Strategies are tried
// in a strict order by the executor; each returns a uniform (markup, page,
// error) result so the fallback chain stays a flat loop.
type Strategy interface {
	Name() string
	Method() models.ExtractionMethod
	Fetch(ctx context.Context, url string, sess *Session) (string, Interactor, error)
}
