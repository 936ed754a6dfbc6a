package handler

// execute.go handles the execution of a GraphQL request

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/andrewwphillips/clubql/internal/field"
	"github.com/andrewwphillips/clubql/internal/schema"
	"github.com/dolmen-go/jsonmap"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

type (
	// gqlRequest decodes and handles each GraphQL request
	gqlRequest struct {
		h     *Handler
		isGet bool // only queries can be run using an HTTP GET

		// These are decoded from the http request body (JSON) or URL
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	// gqlResult contains the result (or errors) of the request to be encoded in JSON.
	// Data is nil (omitted) if the request failed before execution started.
	gqlResult struct {
		Data   interface{}   `json:"data,omitempty"`
		Errors gqlerror.List `json:"errors,omitempty"`
	}
)

// nullData is the result data when execution started but a null propagated to the top
var nullData = json.RawMessage("null")

// Execute parses and runs the request and returns the result plus the HTTP status to send.
// Errors found before execution (syntax, validation, variables) give a 400 status, in which
// case no resolvers have been called.
func (g *gqlRequest) Execute(ctx context.Context) (gqlResult, int) {
	operation, variables, errs := g.h.prepare(g.Query, g.OperationName, g.Variables)
	if errs != nil {
		return gqlResult{Errors: errs}, http.StatusBadRequest
	}

	switch operation.Operation {
	case ast.Mutation:
		if g.isGet {
			return gqlResult{Errors: gqlerror.List{gqlerror.Errorf("mutations cannot be sent using GET")}},
				http.StatusMethodNotAllowed
		}
	case ast.Subscription:
		return gqlResult{Errors: gqlerror.List{gqlerror.Errorf("subscriptions are only available using a websocket")}},
			http.StatusBadRequest
	}

	op := gqlOperation{
		Handler:    g.h,
		isMutation: operation.Operation == ast.Mutation,
		variables:  variables,
	}
	return op.execute(ctx, operation), http.StatusOK
}

// prepare parses and validates the query and variables, returning the operation to be run
func (h *Handler) prepare(query, operationName string, vars map[string]interface{},
) (*ast.OperationDefinition, map[string]interface{}, gqlerror.List) {
	if query == "" {
		return nil, nil, gqlerror.List{gqlerror.Errorf("no query provided")}
	}
	doc, pgqlError := parser.ParseQuery(&ast.Source{
		Name:  "query",
		Input: query,
	})
	if pgqlError != nil {
		return nil, nil, gqlerror.List{pgqlError}
	}
	if errs := validator.Validate(h.astSchema, doc); len(errs) > 0 {
		return nil, nil, errs
	}

	operation, err := selectOperation(doc, operationName)
	if err != nil {
		return nil, nil, gqlerror.List{err}
	}
	variables, pgqlError := validator.VariableValues(h.astSchema, operation, vars)
	if pgqlError != nil {
		return nil, nil, gqlerror.List{pgqlError}
	}
	if errs := checkIntArgs(operation.SelectionSet, variables, map[string]bool{}); len(errs) > 0 {
		return nil, nil, errs
	}
	return operation, variables, nil
}

// checkIntArgs finds Int arguments (literals or variables) that do not fit in 32 bits
func checkIntArgs(set ast.SelectionSet, vars map[string]interface{}, seen map[string]bool) (errs gqlerror.List) {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			if sel.Definition != nil {
				for _, arg := range sel.Arguments {
					def := sel.Definition.Arguments.ForName(arg.Name)
					if def == nil || arg.Value == nil {
						continue
					}
					value, err := arg.Value.Value(vars)
					if err != nil {
						continue // reported by the resolver
					}
					if bad, found := outOfRange(def.Type, value); found {
						errs = append(errs, gqlerror.ErrorPosf(arg.Position,
							"argument %q of field %q: value %v is out of range for Int", arg.Name, sel.Name, bad))
					}
				}
			}
			errs = append(errs, checkIntArgs(sel.SelectionSet, vars, seen)...)
		case *ast.InlineFragment:
			errs = append(errs, checkIntArgs(sel.SelectionSet, vars, seen)...)
		case *ast.FragmentSpread:
			if sel.Definition != nil && !seen[sel.Name] {
				seen[sel.Name] = true
				errs = append(errs, checkIntArgs(sel.Definition.SelectionSet, vars, seen)...)
			}
		}
	}
	return
}

// outOfRange returns the first value in v (which may be a list) that is meant to be an Int
// but is outside the int32 range
func outOfRange(t *ast.Type, v interface{}) (interface{}, bool) {
	if t == nil || v == nil {
		return nil, false
	}
	if t.Elem != nil {
		list, ok := v.([]interface{})
		if !ok {
			return outOfRange(t.Elem, v) // a single value is coerced to a list of one
		}
		for _, elt := range list {
			if bad, found := outOfRange(t.Elem, elt); found {
				return bad, true
			}
		}
		return nil, false
	}
	if t.NamedType != "Int" {
		return nil, false
	}
	var i int64
	switch n := v.(type) {
	case int64:
		i = n
	case int:
		i = int64(n)
	case int32:
		return nil, false
	case float64:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return v, true
		}
		return nil, false
	case json.Number:
		var err error
		if i, err = n.Int64(); err != nil {
			return v, true
		}
	default:
		return nil, false
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return v, true
	}
	return nil, false
}

// selectOperation finds the operation to run - if there is more than one operation in the
// query document then the operation name must be given
func selectOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, *gqlerror.Error) {
	if name != "" {
		if operation := doc.Operations.ForName(name); operation != nil {
			return operation, nil
		}
		return nil, gqlerror.Errorf("operation %q not found", name)
	}
	switch len(doc.Operations) {
	case 0:
		return nil, gqlerror.Errorf("no operation found in the query")
	case 1:
		return doc.Operations[0], nil
	}
	return nil, gqlerror.Errorf("the operation name must be provided when the query has more than one operation")
}

// execute runs a query or mutation operation
func (op *gqlOperation) execute(ctx context.Context, operation *ast.OperationDefinition) gqlResult {
	root := op.schema.Query
	if op.isMutation {
		root = op.schema.Mutation
	}
	data, ok := op.GetSelections(ctx, root, operation.SelectionSet, op.root, nil)
	if !ok {
		return gqlResult{Data: nullData, Errors: op.errors}
	}
	return gqlResult{Data: data, Errors: op.errors}
}

// subscribe starts the single root field of a subscription operation. Each value received from the
// field's source stream is resolved (against the selection set) and sent on the returned chan,
// which is closed when the source is closed or ctx is done.
func (op *gqlOperation) subscribe(ctx context.Context, operation *ast.OperationDefinition) (<-chan gqlResult, error) {
	groups := op.collectFields(op.schema.Subscription, operation.SelectionSet, nil)
	if len(groups) != 1 {
		return nil, fmt.Errorf("a subscription must select exactly one field")
	}
	g := groups[0]
	f := op.schema.Subscription.Field(g.fields[0].Name)
	if f == nil || f.Subscribe == nil {
		return nil, fmt.Errorf("subscription field %q not found", g.fields[0].Name)
	}
	args, err := op.arguments(f, g.fields[0])
	if err != nil {
		return nil, err
	}
	source, err := callSubscribe(ctx, f.Subscribe, args)
	if err != nil {
		return nil, err
	}

	r := make(chan gqlResult)
	go func() {
		defer close(r)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-source:
				if !ok {
					return
				}
				// Each event is a new execution with its own errors
				eventOp := gqlOperation{Handler: op.Handler, variables: op.variables}
				value := eventOp.resolveEvent(ctx, f, g, event, args)
				result := gqlResult{Errors: eventOp.errors}
				if value.ok {
					result.Data = jsonmap.Ordered{
						Data:  map[string]interface{}{value.name: value.value},
						Order: []string{value.name},
					}
				} else {
					result.Data = nullData
				}
				select {
				case r <- result:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return r, nil
}

// resolveEvent completes a value from a subscription source stream. If the field also has a
// resolver it is used to map the event to the field's value.
func (op *gqlOperation) resolveEvent(ctx context.Context, f *schema.Field, g *fieldGroup, event interface{},
	args field.Args) gqlValue {
	path := ast.Path{ast.PathName(g.key)}
	_, isNonNull, _ := schema.Unwrap(f.Type)

	value := event
	if f.Resolve != nil {
		var err error
		if value, err = callResolver(ctx, f.Resolve, event, args); err != nil {
			op.addError(g.fields[0], path, err)
			return gqlValue{name: g.key, ok: !isNonNull}
		}
	}
	v, ok := op.complete(ctx, f.Type, g, value, path)
	if !ok && !isNonNull {
		v, ok = nil, true // null is absorbed by the nullable field
	}
	return gqlValue{name: g.key, value: v, ok: ok}
}
