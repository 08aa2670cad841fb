package graphql

import (
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"github.com/tsuki42/reddit-clone/internal/application/services"
)

// NewHandler parses the schema against the root resolver and returns the
// request handler. Panics on a schema/resolver mismatch, which is a
// programming error caught at startup.
func NewHandler(auth *services.AuthService) http.Handler {
	schema := graphql.MustParseSchema(Schema, NewResolver(auth))
	return &relay.Handler{Schema: schema}
}
