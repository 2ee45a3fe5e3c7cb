package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/jacktogon/ringcam/internal/logger"
)

type Middleware func(http.Handler) http.Handler

type RouteInfo struct {
	Handler     http.Handler
	Description string
	Methods     []string
	Order       int
	// Limited routes go through the rate limiter
	Limited bool
}

type RouteRegistry struct {
	routes   map[string]RouteInfo
	logger   logger.StyledLogger
	orderSeq int
}

func NewRouteRegistry(logger logger.StyledLogger) *RouteRegistry {
	return &RouteRegistry{
		routes: make(map[string]RouteInfo),
		logger: logger,
	}
}

func (r *RouteRegistry) Register(route string, handler http.HandlerFunc, description string) {
	r.RegisterWithMethod(route, handler, description, http.MethodGet)
}

func (r *RouteRegistry) RegisterWithMethod(route string, handler http.Handler, description string, methods ...string) {
	r.register(route, handler, description, methods, false)
}

// RegisterLimited registers a GET route that is subject to rate limiting
func (r *RouteRegistry) RegisterLimited(route string, handler http.HandlerFunc, description string) {
	r.register(route, handler, description, []string{http.MethodGet}, true)
}

func (r *RouteRegistry) register(route string, handler http.Handler, description string, methods []string, limited bool) {
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}
	r.routes[route] = RouteInfo{
		Handler:     handler,
		Description: description,
		Methods:     methods,
		Order:       r.orderSeq,
		Limited:     limited,
	}
	r.orderSeq++
}

// WireUp mounts every route on mux. limiter wraps Limited routes only and
// may be nil.
func (r *RouteRegistry) WireUp(mux *http.ServeMux, limiter Middleware) {
	for route, info := range r.routes {
		handler := allowMethods(info.Methods, info.Handler)
		if info.Limited && limiter != nil {
			handler = limiter(handler)
		}
		mux.Handle(route, handler)
	}
	r.logRoutesTable()
}

// allowMethods answers anything outside methods with 405. GET also admits HEAD.
func allowMethods(methods []string, next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(methods)+1)
	for _, m := range methods {
		allowed[m] = struct{}{}
		if m == http.MethodGet {
			allowed[http.MethodHead] = struct{}{}
		}
	}
	allowHeader := strings.Join(methods, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if _, ok := allowed[req.Method]; !ok {
			w.Header().Set("Allow", allowHeader)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *RouteRegistry) logRoutesTable() {
	if len(r.routes) == 0 {
		return
	}

	type routeEntry struct {
		path    string
		methods string
		desc    string
		order   int
	}

	entries := make([]routeEntry, 0, len(r.routes))
	for route, info := range r.routes {
		desc := info.Description
		if info.Limited {
			desc += " (rate limited)"
		}
		entries = append(entries, routeEntry{
			path:    route,
			methods: strings.Join(info.Methods, ","),
			desc:    desc,
			order:   info.Order,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].order < entries[j].order
	})

	tableData := [][]string{
		{"ROUTE", "METHOD", "DESCRIPTION"},
	}
	for _, entry := range entries {
		tableData = append(tableData, []string{entry.path, entry.methods, entry.desc})
	}

	r.logger.InfoWithCount("Registered web routes", len(entries))
	tableString, _ := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
	fmt.Print(tableString)
}

func (r *RouteRegistry) GetRoutes() map[string]RouteInfo {
	return r.routes
}
