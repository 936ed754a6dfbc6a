package handler

// request.go decodes a GraphQL request from the body (POST) or URL parameters (GET) of an HTTP request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

const maxBodySize = 1 << 20 // largest request body (bytes) that we will read

var errBodyTooLarge = errors.New("request body is too large")

// decodeRequest creates a gqlRequest from the HTTP request. Supported are:
//   - GET with query, operationName and variables (JSON) URL parameters
//   - POST with a JSON body (application/json or no content type)
//   - POST with the query as the whole body (application/graphql)
func (h *Handler) decodeRequest(r *http.Request) (*gqlRequest, error) {
	g := &gqlRequest{h: h}
	if r.Method == http.MethodGet {
		g.isGet = true
		if err := g.fromValues(r.URL.Query()); err != nil {
			return nil, err
		}
		return g, nil
	}

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")) // on error contentType is ""
	body, err := ioutil.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading request: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, errBodyTooLarge
	}

	switch contentType {
	case "application/graphql":
		g.Query = string(body)

	case "", "application/json":
		decoder := jsonAPI.NewDecoder(bytes.NewReader(body))
		decoder.UseNumber() // allows us to distinguish ints from floats (see FixNumberVariables())
		if err := decoder.Decode(g); err != nil {
			return nil, fmt.Errorf("Error decoding JSON request: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}
	return g, nil
}

// fromValues gets the request from URL query parameters
func (g *gqlRequest) fromValues(values url.Values) error {
	var err error
	if g.Query, err = getOneValue(values, "query"); err != nil {
		return err
	}
	if g.OperationName, err = getOneValue(values, "operationName"); err != nil {
		return err
	}
	variables, err := getOneValue(values, "variables")
	if err != nil {
		return err
	}
	if variables != "" {
		decoder := jsonAPI.NewDecoder(strings.NewReader(variables))
		decoder.UseNumber()
		if err := decoder.Decode(&g.Variables); err != nil {
			return fmt.Errorf("Error decoding variables: %w", err)
		}
	}
	return nil
}

// getOneValue returns the value of a URL parameter, "" if not present or an error if it was repeated
func getOneValue(values url.Values, key string) (string, error) {
	v := values[key]
	switch len(v) {
	case 0:
		return "", nil
	case 1:
		return v[0], nil
	default:
		return "", fmt.Errorf("multiple values are provided for %q but only one expected", key)
	}
}
