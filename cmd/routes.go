package main

import (
	"context"
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"github.com/thewillhuang/middleman/internal/marketplace"
)

func (app *application) routes(ctx context.Context, deps *marketplace.Deps) (http.Handler, error) {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	apiMiddleware := standardMiddleware.Append(makeResponseJSON)

	mux := pat.New()

	if _, err := marketplace.RegisterMarketplaceRoutes(ctx, mux, apiMiddleware, deps); err != nil {
		return nil, err
	}

	mux.Get("/metrics", standardMiddleware.Then(app.metrics.Handler()))
	mux.Get("/", standardMiddleware.ThenFunc(ping))

	return mux, nil
}

// ping answers the health check. pat treats "/" as a prefix, so anything
// unmatched lands here too.
func ping(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("pong"))
}
