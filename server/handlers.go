package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/vellum/document"
	"github.com/ByLCY/vellum/dsl"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/session"
)

type (
	createRequest struct {
		Title      string     `json:"title"`
		CanvasSize *geom.Size `json:"canvasSize,omitempty"`
	}

	scriptRequest struct {
		Script   string         `json:"script"`
		Data     any            `json:"data,omitempty"`
		Save     *bool          `json:"save,omitempty"` // 默认 true：脚本成功且有改动时写回
		Viewport *geom.Viewport `json:"viewport,omitempty"`
		Window   *geom.Size     `json:"window,omitempty"`
	}

	scriptResponse struct {
		Report *session.Report `json:"report,omitempty"`
		Saved  bool            `json:"saved"`
		Error  string          `json:"error,omitempty"`
	}
)

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

// statusOf 把领域错误映射为 HTTP 状态码。
func statusOf(err error) int {
	switch {
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrCorrupt),
		errors.Is(err, session.ErrExpectation),
		errors.Is(err, session.ErrRejected),
		errors.Is(err, session.ErrUnknownElement):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dsl.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	metas, err := s.store.List(r.Context())
	if err != nil {
		logrus.WithField("error", err).Error("Failed to list documents")
		writeError(w, r, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	if metas == nil {
		metas = []document.Meta{}
	}
	render.JSON(w, r, metas)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	size := geom.Size{Width: s.settings.Canvas.Width, Height: s.settings.Canvas.Height}
	if req.CanvasSize != nil {
		if req.CanvasSize.Width <= 0 || req.CanvasSize.Height <= 0 {
			writeError(w, r, http.StatusBadRequest, "Canvas size must be positive")
			return
		}
		size = *req.CanvasSize
	}
	doc := document.New(req.Title, size)
	if err := s.store.Save(r.Context(), &doc); err != nil {
		logrus.WithField("error", err).Error("Failed to create document")
		writeError(w, r, http.StatusInternalServerError, "Failed to create document")
		return
	}
	logrus.WithField("document_id", doc.ID).Info("document created")
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, document.MetaOf(doc))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		logrus.WithFields(logrus.Fields{"error": err, "document_id": id}).Warn("Failed to get document")
		writeError(w, r, statusOf(err), err.Error())
		return
	}
	data, err := document.Encode(doc)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to encode document")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := document.ValidateID(id); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	doc, err := document.Decode(body)
	if err != nil {
		logrus.WithFields(logrus.Fields{"error": err, "document_id": id}).Warn("Rejected document")
		writeError(w, r, statusOf(err), err.Error())
		return
	}
	doc.ID = id

	m := s.lock(id)
	m.Lock()
	defer m.Unlock()
	if err := s.store.Save(r.Context(), &doc); err != nil {
		logrus.WithFields(logrus.Fields{"error": err, "document_id": id}).Error("Failed to save document")
		writeError(w, r, http.StatusInternalServerError, "Failed to save document")
		return
	}
	render.JSON(w, r, document.MetaOf(doc))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m := s.lock(id)
	m.Lock()
	defer m.Unlock()
	if err := s.store.Delete(r.Context(), id); err != nil {
		logrus.WithFields(logrus.Fields{"error": err, "document_id": id}).Warn("Failed to delete document")
		writeError(w, r, statusOf(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleScript 在存储的文档上执行脚本。脚本成功且文档有改动时写回存储。
func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req scriptRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBodySize)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	log := logrus.WithField("document_id", id)

	m := s.lock(id)
	m.Lock()
	defer m.Unlock()

	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		log.WithField("error", err).Warn("Failed to load document for script")
		writeError(w, r, statusOf(err), err.Error())
		return
	}
	save := req.Save == nil || *req.Save
	opts := session.Options{Settings: s.settings, Measurer: s.measurer, Data: req.Data}
	if save {
		// 脚本中的 wait 会触发自动保存
		opts.Store = s.store
	}
	if req.Viewport != nil {
		opts.Viewport = *req.Viewport
	}
	if req.Window != nil {
		opts.Window = *req.Window
	}
	sess := session.New(doc, opts)
	defer sess.Close()
	report, err := sess.RunString(r.Context(), req.Script)
	if err != nil {
		log.WithField("error", err).Info("script failed")
		render.Status(r, statusOf(err))
		render.JSON(w, r, scriptResponse{Report: report, Error: err.Error()})
		return
	}

	resp := scriptResponse{Report: report}
	if save {
		saved, err := sess.Save(r.Context())
		if err != nil {
			log.WithField("error", err).Error("Failed to save document after script")
			writeError(w, r, http.StatusInternalServerError, "Failed to save document")
			return
		}
		resp.Saved = saved
		if saved {
			log.WithField("elements", sess.Snapshot().ElementCount()).Info("script applied")
		}
	}
	render.JSON(w, r, resp)
}
