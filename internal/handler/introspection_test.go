package handler_test

import (
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/andrewwphillips/clubql/internal/handler"
)

func TestIntrospection(t *testing.T) {
	introspectionData := map[string]struct {
		query    string      // GraphQL query to send to the handler (query syntax)
		expected interface{} // expected result after decoding the returned JSON
	}{
		"Query TypeName": {
			query:    "{ __typename }",
			expected: JsonObject{"__typename": "Query"},
		},
		"Mutation TypeName": {
			query:    "mutation { __typename }",
			expected: JsonObject{"__typename": "Mutation"},
		},
		"QueryType": {
			query: "{ __schema { queryType { name kind description } } }",
			expected: JsonObject{"__schema": JsonObject{"queryType": JsonObject{
				"name": "Query", "kind": "OBJECT", "description": nil,
			}}},
		},
		"RootTypes": {
			query: "{ __schema { mutationType { name } subscriptionType { name } } }",
			expected: JsonObject{"__schema": JsonObject{
				"mutationType":     JsonObject{"name": "Mutation"},
				"subscriptionType": JsonObject{"name": "Subscription"},
			}},
		},
		"Type Item": {
			query:    `{ __type(name: "Item") { name kind description } }`,
			expected: JsonObject{"__type": JsonObject{"name": "Item", "kind": "OBJECT", "description": "An item"}},
		},
		"Unknown Type": {
			query:    `{ __type(name: "Unknown") { name } }`,
			expected: JsonObject{"__type": nil},
		},
		"Fields": {
			query: `{ __type(name: "Nested") { fields { name type { kind name ofType { kind name } } } } }`,
			expected: JsonObject{"__type": JsonObject{"fields": []interface{}{
				JsonObject{"name": "p", "type": JsonObject{"kind": "NON_NULL", "name": nil, "ofType": JsonObject{"kind": "SCALAR", "name": "Boolean"}}},
				JsonObject{"name": "q", "type": JsonObject{"kind": "NON_NULL", "name": nil, "ofType": JsonObject{"kind": "SCALAR", "name": "Boolean"}}},
			}}},
		},
		"ListType": {
			query: `{ __type(name: "Item") { fields(includeDeprecated: true) { name type { kind ofType { kind ofType { name } } } } } }`,
			expected: JsonObject{"__type": JsonObject{"fields": []interface{}{
				JsonObject{"name": "id", "type": JsonObject{"kind": "NON_NULL", "ofType": JsonObject{"kind": "SCALAR", "ofType": nil}}},
				JsonObject{"name": "name", "type": JsonObject{"kind": "SCALAR", "ofType": nil}},
				JsonObject{"name": "tags", "type": JsonObject{"kind": "LIST", "ofType": JsonObject{"kind": "NON_NULL", "ofType": JsonObject{"name": "String"}}}},
				JsonObject{"name": "broken", "type": JsonObject{"kind": "NON_NULL", "ofType": JsonObject{"kind": "SCALAR", "ofType": nil}}},
			}}},
		},
		"Args": {
			query: `{ __type(name: "Query") { fields { name args { name defaultValue } } } }`,
			expected: nil, // checked below
		},
		"Enum": {
			query: `{ __type(name: "Direction") { kind enumValues { name isDeprecated } } }`,
			expected: JsonObject{"__type": JsonObject{"kind": "ENUM", "enumValues": []interface{}{
				JsonObject{"name": "UP", "isDeprecated": false},
				JsonObject{"name": "DOWN", "isDeprecated": false},
			}}},
		},
		"ScalarFields": {
			query:    `{ __type(name: "Int") { kind fields { name } enumValues { name } inputFields { name } } }`,
			expected: JsonObject{"__type": JsonObject{"kind": "SCALAR", "fields": nil, "enumValues": nil, "inputFields": nil}},
		},
	}

	for name, testData := range introspectionData {
		if testData.expected == nil {
			continue
		}
		h := handler.New(newTestSchema(), nil)
		status, result := post(h, testData.query, "")

		Assertf(t, status == http.StatusOK, "%20s: expected status OK, got %d", name, status)
		Assertf(t, result.Errors == nil, "%20s: expected no error and got %v", name, result.Errors)
		Assertf(t, reflect.DeepEqual(result.Data, testData.expected), "%20s: expected %v, got %v", name, testData.expected, result.Data)
	}

	// Check that argument defaults are shown as GraphQL literals
	h := handler.New(newTestSchema(), nil)
	_, result := post(h, introspectionData["Args"].query, "")
	fields, _ := result.Data.(JsonObject)["__type"].(JsonObject)["fields"].([]interface{})
	found := false
	for _, f := range fields {
		if f.(JsonObject)["name"] != "f" {
			continue
		}
		found = true
		expected := []interface{}{
			JsonObject{"name": "i", "defaultValue": "87"},
			JsonObject{"name": "s", "defaultValue": `"ijk"`},
		}
		Assertf(t, reflect.DeepEqual(f.(JsonObject)["args"], expected), "%20s: expected %v, got %v", "Args", expected, f.(JsonObject)["args"])
	}
	Assertf(t, found, "%20s: field f not found in %v", "Args", fields)
}

func TestSchemaTypes(t *testing.T) {
	h := handler.New(newTestSchema(), nil)
	status, result := post(h, `{ __schema { types { name } directives { name locations } } }`, "")
	Assertf(t, status == http.StatusOK, "expected status OK, got %d", status)

	s, _ := result.Data.(JsonObject)["__schema"].(JsonObject)
	names := make(map[string]bool)
	types, _ := s["types"].([]interface{})
	for _, typ := range types {
		names[typ.(JsonObject)["name"].(string)] = true
	}
	for _, want := range []string{"Query", "Mutation", "Subscription", "Item", "Nested", "Direction", "String", "__Type"} {
		Assertf(t, names[want], "expected type %q in __schema types", want)
	}

	directives, _ := s["directives"].([]interface{})
	var skip JsonObject
	for _, d := range directives {
		if d.(JsonObject)["name"] == "skip" {
			skip = d.(JsonObject)
		}
	}
	Assertf(t, skip != nil, "expected to find the skip directive")
	if skip != nil {
		locations, _ := skip["locations"].([]interface{})
		Assertf(t, len(locations) == 3, "expected skip to have 3 locations, got %v", locations)
	}
}

func TestNoIntrospection(t *testing.T) {
	h := handler.New(newTestSchema(), nil, handler.NoIntrospection(true))

	status, result := post(h, `{ __type(name: "Item") { name } message }`, "")
	Assertf(t, status == http.StatusOK, "expected status OK, got %d", status)
	Assertf(t, len(result.Errors) == 1 && strings.Contains(result.Errors[0].Message, "disabled"),
		"expected introspection disabled error, got %v", result.Errors)
	expected := JsonObject{"__type": nil, "message": "hello"}
	Assertf(t, reflect.DeepEqual(result.Data, expected), "expected %v, got %v", expected, result.Data)

	// __typename is always available
	_, result = post(h, `{ __typename }`, "")
	Assertf(t, reflect.DeepEqual(result.Data, JsonObject{"__typename": "Query"}), "expected __typename, got %v", result.Data)
}
