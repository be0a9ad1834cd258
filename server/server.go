// Package server 通过 HTTP 暴露文档存储与脚本执行。
package server

import (
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ByLCY/vellum/config"
	"github.com/ByLCY/vellum/document"
	"github.com/ByLCY/vellum/session"
	"github.com/ByLCY/vellum/textfit"
)

// MaxBodySize 是请求体的上限。
const MaxBodySize = 8 << 20

// Options 配置服务。Measurer 为空时按 Settings 选择。
type Options struct {
	Settings *config.Settings
	Measurer textfit.Measurer
}

// Server 持有存储与脚本执行所需的共享依赖。同一文档的脚本执行与写入按文档串行。
type Server struct {
	store    document.Store
	settings *config.Settings
	measurer textfit.Measurer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New 创建服务。
func New(store document.Store, opts Options) *Server {
	if opts.Settings == nil {
		opts.Settings = config.Default()
	}
	if opts.Measurer == nil {
		opts.Measurer = session.MeasurerFor(opts.Settings)
	}
	return &Server{
		store:    store,
		settings: opts.Settings,
		measurer: opts.Measurer,
		locks:    map[string]*sync.Mutex{},
	}
}

// Router 返回挂载了全部路由的 chi 路由器。
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Origin"},
		MaxAge:         300,
	}))

	r.Route("/api/documents", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Put("/", s.handlePut)
			r.Delete("/", s.handleDelete)
			r.Post("/script", s.handleScript)
		})
	})
	return r
}

// lock 返回文档对应的互斥锁。
func (s *Server) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}
