package router

import "github.com/gin-gonic/gin"

// Module adds its routes to the group it is mounted on.
type Module interface {
	Register(rg *gin.RouterGroup)
}

type mounted struct {
	group  *gin.RouterGroup
	module Module
}

// Registry collects modules and mounts them under /api or a version group
// such as /api/v1. Shared middleware applies to everything under /api.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	versions    map[string]*gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []mounted
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{
		Engine:   engine,
		API:      engine.Group("/api"),
		versions: map[string]*gin.RouterGroup{},
	}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

// Add mounts mod directly under /api.
func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mounted{group: r.API, module: mod})
}

// AddVersioned mounts mod under /api/<version>.
func (r *Registry) AddVersioned(version string, mod Module) {
	g, ok := r.versions[version]
	if !ok {
		g = r.API.Group("/" + version)
		r.versions[version] = g
	}
	r.modules = append(r.modules, mounted{group: g, module: mod})
}

// RegisterAll applies the shared middleware, then registers modules in the order added.
func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.module.Register(m.group)
	}
}
