package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/wudi/ocrconvert/document"
	"github.com/wudi/ocrconvert/observability"
	"github.com/wudi/ocrconvert/render"
)

type uploadResponse struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mimetype"`
	FileData string `json:"file_data"`
	Token    string `json:"token"`
}

type downloadRequest struct {
	Token    string `json:"token"`
	FileData string `json:"file_data"`
	Filename string `json:"filename"`
	MIMEType string `json:"mimetype"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"ocr_engine": s.conv.EngineName(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.MaxUploadBytes() {
		writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "No file part")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A part sent with an empty filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			writeMessage(w, http.StatusBadRequest, "No selected file")
			return
		}
		writeMessage(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeMessage(w, http.StatusBadRequest, "No selected file")
		return
	}
	if !s.cfg.Allowed(document.Extension(header.Filename)) {
		writeMessage(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format := render.ParseFormat(r.FormValue("format"))
	doc := document.New(header.Filename, data)

	art, err := s.conv.Convert(r.Context(), doc, format)
	if err != nil {
		s.logger.Error("conversion failed",
			observability.String("filename", header.Filename),
			observability.String("format", string(format)),
			observability.Error("error", err),
		)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Filename: art.Filename,
		MIMEType: art.MIMEType,
		FileData: hex.EncodeToString(art.Data),
		Token:    s.store.Put(art),
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	// Hex doubles the payload; leave room for the JSON envelope.
	r.Body = http.MaxBytesReader(w, r.Body, 4*s.cfg.MaxUploadBytes()+1<<20)
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "Request too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if req.Token != "" {
		art, ok := s.store.Get(req.Token)
		if !ok {
			writeMessage(w, http.StatusNotFound, "Unknown or expired token")
			return
		}
		sendAttachment(w, art)
		return
	}

	if req.FileData == "" || req.Filename == "" || req.MIMEType == "" {
		writeMessage(w, http.StatusBadRequest, "file_data, filename and mimetype are required")
		return
	}
	data, err := hex.DecodeString(req.FileData)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid file_data")
		return
	}
	sendAttachment(w, render.Artifact{Data: data, MIMEType: req.MIMEType, Filename: req.Filename})
}

func sendAttachment(w http.ResponseWriter, art render.Artifact) {
	name := filepath.Base(art.Filename)
	w.Header().Set("Content-Type", art.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(art.Data)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeMessage(w, code, err.Error())
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
