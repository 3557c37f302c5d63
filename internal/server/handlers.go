package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/internal/documents"
	"github.com/nerdneilsfield/doc-forge/pkg/pipeline"
	"github.com/nerdneilsfield/doc-forge/pkg/structure"
)

// maxJSONBody JSON 请求体上限
const maxJSONBody = 4 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "Invalid input")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	blocks := structure.Segment(req.Text)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"blocks": blocks,
		"slides": structure.GroupSlides(blocks),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var in documents.GenerateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	doc, err := s.docs.Generate(r.Context(), userFrom(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"document": doc})
}

func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID   string `json:"documentId"`
		Instructions string `json:"instructions"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DocumentID == "" {
		badRequest(w, "documentId is required")
		return
	}
	doc, err := s.docs.Rewrite(r.Context(), userFrom(r), req.DocumentID, req.Instructions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"document": doc})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content        string `json:"content"`
		TargetLanguage string `json:"targetLanguage"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := s.docs.Pipeline().Translate(r.Context(), req.Content, req.TargetLanguage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"translated": out})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
		Format  string `json:"format"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	format, err := pipeline.ParseSummaryFormat(req.Format)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	out, err := s.docs.Pipeline().Summarize(r.Context(), req.Content, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": out})
}

func (s *Server) handleGrammar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := s.docs.Pipeline().CheckGrammar(r.Context(), req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// 模型按要求返回 JSON 时原样透传，否则作为文本返回
	if json.Valid([]byte(out)) {
		writeJSON(w, http.StatusOK, map[string]json.RawMessage{"result": json.RawMessage(out)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": out})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// 额外 1MB 留给表单字段
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, r, documents.ErrTooLarge)
			return
		}
		badRequest(w, "Invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "No file provided")
		return
	}
	defer file.Close()

	if header.Size > s.opts.MaxUploadSize {
		s.writeError(w, r, fmt.Errorf("%w: %d bytes", documents.ErrTooLarge, header.Size))
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, "Failed to read file")
		return
	}

	doc, err := s.docs.Upload(r.Context(), userFrom(r), documents.UploadInput{
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
		Title:    r.FormValue("title"),
		Convert:  r.FormValue("convert"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"document": doc})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.Get(r.Context(), userFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"document": doc})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content *string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Content == nil {
		badRequest(w, "content is required")
		return
	}
	doc, err := s.docs.Edit(r.Context(), userFrom(r), chi.URLParam(r, "id"), *req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"document": doc})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.docs.Delete(r.Context(), userFrom(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	dl, err := s.docs.Download(r.Context(), userFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.Data)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Format string `json:"format"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.docs.Render(r.Context(), userFrom(r), chi.URLParam(r, "id"), req.Format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"document": doc})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p, err := s.docs.Preview(r.Context(), userFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.docs.Session(r.Context(), userFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// handleEvents 以 server-sent events 推送协作事件，直到客户端断开或中心关闭
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sub, err := s.docs.Subscribe(r.Context(), userFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer sub.Cancel()

	rc := http.NewResponseController(w)
	// 长连接不受服务端写超时限制
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.Warn("event stream cannot flush", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
