// Package routes declares HTTP routes as data so the same definitions drive
// both mux registration and OpenAPI document generation.
package routes

import (
	"net/http"

	"github.com/JaimeStill/delivery-notes/pkg/openapi"
)

// Route is a single method and pattern bound to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}

// Group collects routes under a shared prefix. Children inherit the prefix.
type Group struct {
	Prefix      string
	Tags        []string
	Description string
	Routes      []Route
	Children    []Group
	Schemas     map[string]*openapi.Schema
}

// AddToSpec adds every documented route of the group and its children to spec.
// Operations without tags inherit the group's tags.
func (g *Group) AddToSpec(basePath string, spec *openapi.Spec) {
	g.addToSpec(basePath, spec)
}

func (g *Group) addToSpec(parentPrefix string, spec *openapi.Spec) {
	fullPrefix := parentPrefix + g.Prefix

	if len(g.Schemas) > 0 {
		if spec.Components == nil {
			spec.Components = openapi.NewComponents()
		}
		spec.Components.AddSchemas(g.Schemas)
	}

	for _, route := range g.Routes {
		if route.OpenAPI == nil {
			continue
		}

		op := route.OpenAPI
		if len(op.Tags) == 0 {
			op.Tags = g.Tags
		}

		spec.AddOperation(fullPrefix+route.Pattern, route.Method, op)
	}

	for _, child := range g.Children {
		child.addToSpec(fullPrefix, spec)
	}
}

func (g *Group) register(mux *http.ServeMux, parentPrefix string) {
	fullPrefix := parentPrefix + g.Prefix

	for _, route := range g.Routes {
		mux.HandleFunc(route.Method+" "+fullPrefix+route.Pattern, route.Handler)
	}

	for _, child := range g.Children {
		child.register(mux, fullPrefix)
	}
}

// Register mounts every group on mux and documents it in spec under basePath.
// Mux patterns are relative to the module, spec paths include basePath.
func Register(mux *http.ServeMux, basePath string, spec *openapi.Spec, groups ...Group) {
	for _, group := range groups {
		group.register(mux, "")
		group.AddToSpec(basePath, spec)
	}
}
