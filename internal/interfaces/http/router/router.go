// Package router assembles the gin engine: middleware chain and route table.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Mountable is anything that can attach its routes to the versioned API group
type Mountable interface {
	Mount(api *gin.RouterGroup)
}

// Router mounts resource groups under /api/{version}
type Router struct {
	engine  *gin.Engine
	version string
	mounts  []Mountable
}

// Option configures a Router
type Option func(*Router)

// WithVersion overrides the "v1" path segment
func WithVersion(version string) Option {
	return func(r *Router) { r.version = version }
}

// NewRouter wraps engine; nothing is registered until Setup
func NewRouter(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, apply := range opts {
		apply(r)
	}
	return r
}

// Register queues m for Setup
func (r *Router) Register(m ...Mountable) *Router {
	r.mounts = append(r.mounts, m...)
	return r
}

// Setup mounts every registered group
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.version)
	for _, m := range r.mounts {
		m.Mount(api)
	}
}

type route struct {
	method string
	path   string
	chain  []gin.HandlerFunc
}

// ResourceGroup is the route table of one resource. Routes are recorded
// and only attached to gin by Mount, so a group can be built before the engine.
type ResourceGroup struct {
	name   string
	prefix string
	before []gin.HandlerFunc
	routes []route
}

func NewResourceGroup(name, prefix string) *ResourceGroup {
	return &ResourceGroup{name: name, prefix: prefix}
}

// Use runs mw ahead of every route in the group
func (g *ResourceGroup) Use(mw ...gin.HandlerFunc) *ResourceGroup {
	g.before = append(g.before, mw...)
	return g
}

func (g *ResourceGroup) add(method, path string, chain []gin.HandlerFunc) *ResourceGroup {
	g.routes = append(g.routes, route{method: method, path: path, chain: chain})
	return g
}

func (g *ResourceGroup) GET(path string, chain ...gin.HandlerFunc) *ResourceGroup {
	return g.add(http.MethodGet, path, chain)
}

func (g *ResourceGroup) POST(path string, chain ...gin.HandlerFunc) *ResourceGroup {
	return g.add(http.MethodPost, path, chain)
}

func (g *ResourceGroup) DELETE(path string, chain ...gin.HandlerFunc) *ResourceGroup {
	return g.add(http.MethodDelete, path, chain)
}

// Mount implements Mountable
func (g *ResourceGroup) Mount(api *gin.RouterGroup) {
	rg := api.Group(g.prefix, g.before...)
	for _, rt := range g.routes {
		rg.Handle(rt.method, rt.path, rt.chain...)
	}
}

func (g *ResourceGroup) Name() string   { return g.name }
func (g *ResourceGroup) Prefix() string { return g.prefix }
