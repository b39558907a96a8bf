package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
)

// maxBodyBytes caps the size of a GraphQL request body.
const maxBodyBytes = 1 << 20

// Request is the standard GraphQL-over-HTTP POST body.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

type Handler struct {
	schema graphql.Schema
	logger logging.Logger
}

func NewHandler(schema graphql.Schema, logger logging.Logger) *Handler {
	return &Handler{schema: schema, logger: logger}
}

// ServeHTTP accepts POST with a JSON body and GET with query parameters.
// GET only runs query operations: a cookie-authenticated link must not
// mutate state. GraphQL errors are reported in the body with status 200.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request

	switch r.Method {
	case http.MethodGet:
		req.Query = r.URL.Query().Get("query")
		req.OperationName = r.URL.Query().Get("operationName")
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				http.Error(w, "invalid variables", http.StatusBadRequest)
				return
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodGet && !queryOnly(req.Query) {
		w.Header().Set("Allow", "POST")
		http.Error(w, "mutations require POST", http.StatusMethodNotAllowed)
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error(r.Context(), "write graphql response", "error", err)
	}
}

// queryOnly reports whether every operation in the document is a query.
// Unparseable documents count as safe; execution reports the syntax error.
func queryOnly(query string) bool {
	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(query), Name: "GraphQL request"}),
	})
	if err != nil {
		return true
	}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if ok && op.Operation != ast.OperationTypeQuery {
			return false
		}
	}
	return true
}
