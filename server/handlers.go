package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/benoitkugler/okink/inkdoc"
	"github.com/benoitkugler/okink/inkpath"
	"github.com/benoitkugler/okink/inkpdf"
	"github.com/benoitkugler/okink/inkraster"
	"github.com/google/uuid"
)

// APIResponse is the envelope of JSON responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: status >= 200 && status < 300, Data: data})
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Error: &APIError{Code: code, Message: message}})
}

// classify maps rendering errors to an HTTP status and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, inkdoc.ErrNoPages):
		return http.StatusBadRequest, "no_pages"
	case errors.Is(err, inkdoc.ErrInvalidCanvas):
		return http.StatusBadRequest, "invalid_canvas"
	case errors.Is(err, inkraster.ErrPageRange):
		return http.StatusBadRequest, "invalid_page"
	case errors.Is(err, inkraster.ErrInvalidDPI):
		return http.StatusBadRequest, "invalid_dpi"
	case errors.Is(err, inkraster.ErrPageTooLarge):
		return http.StatusBadRequest, "page_too_large"
	case errors.Is(err, inkpath.ErrNoImages), errors.Is(err, inkpath.ErrUnsupportedFormat):
		return http.StatusBadRequest, "invalid_images"
	default:
		return http.StatusInternalServerError, "render_failed"
	}
}

func writeRenderError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	WriteError(w, status, code, err.Error())
}

// readRequest decodes the body as an editor request.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) (*inkpath.Request, bool) {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxMessageSize)
	var req inkpath.Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("Invalid request body: %s", err))
		return nil, false
	}
	return &req, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePDF renders the request body and returns the PDF document.
func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	w.Header().Set("X-Request-ID", id)

	req, ok := s.readRequest(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	report, err := inkpdf.RenderToPDF(req, &buf, s.options.PDF)
	if err != nil {
		writeRenderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Page-Count", strconv.Itoa(len(report.Pages)))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// handlePreview renders one page of the request body as a PNG image.
// The page index and resolution are read from the "page" and "dpi"
// query parameters.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	w.Header().Set("X-Request-ID", id)

	query := r.URL.Query()
	page, dpi := 0, s.options.PreviewDPI
	if v := query.Get("page"); v != "" {
		var err error
		if page, err = strconv.Atoi(v); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_page", fmt.Sprintf("Invalid page %q", v))
			return
		}
	}
	if v := query.Get("dpi"); v != "" {
		var err error
		if dpi, err = strconv.ParseFloat(v, 64); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_dpi", fmt.Sprintf("Invalid resolution %q", v))
			return
		}
	}

	req, ok := s.readRequest(w, r)
	if !ok {
		return
	}
	img, err := inkraster.RenderPage(req, page, dpi, s.options.compositor())
	if err != nil {
		writeRenderError(w, err)
		return
	}
	var buf bytes.Buffer
	if err = inkraster.EncodePNG(&buf, img); err != nil {
		writeRenderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
