package httpserver

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/and161185/nutrikeeper/internal/analyzer"
	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
)

type draftResponse struct {
	ID          string            `json:"id"`
	Status      model.DraftStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	VisibleData model.VisibleData `json:"visible_data"`
	GPTResult   model.Document    `json:"gpt_result"`
}

func toDraftResponse(d *model.MealDraft) draftResponse {
	return draftResponse{
		ID:          d.ID.String(),
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
		VisibleData: d.VisibleData,
		GPTResult:   d.GPTResult,
	}
}

func (s *Server) createDraft(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	in, err := s.readDraftInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	d, sug, err := s.svc.Drafts.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"draft_id":     d.ID.String(),
		"suggestion":   sug,
		"visible_data": d.VisibleData,
	})
}

// readDraftInput accepts multipart/form-data with repeated "images" files
// and an optional "text" field.
func (s *Server) readDraftInput(w http.ResponseWriter, r *http.Request) (analyzer.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return analyzer.Input{}, err
		}
		return analyzer.Input{}, errs.Validation("expected multipart/form-data")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	in := analyzer.Input{Text: r.FormValue("text")}
	for _, fh := range r.MultipartForm.File["images"] {
		img, err := readImage(fh)
		if err != nil {
			return analyzer.Input{}, err
		}
		in.Images = append(in.Images, img)
	}
	return in, nil
}

func readImage(fh *multipart.FileHeader) (analyzer.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return analyzer.Image{}, errs.Validation("unreadable image")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return analyzer.Image{}, errs.Validation("unreadable image")
	}
	img := analyzer.Image{Data: data}
	if ct := fh.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
		img.ContentType = ct
	}
	return img, nil
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := s.svc.Drafts.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

func (s *Server) confirmDraft(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var over model.MealOverrides
	if err := decodeJSON(w, r, &over, true); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.svc.Drafts.Confirm(r.Context(), userID, id, over)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"meal_id":  res.MealID.String(),
		"draft_id": res.DraftID.String(),
	})
}

func (s *Server) discardDraft(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.Drafts.Discard(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.DraftDeleted), "draft_id": id.String()})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		// a malformed id cannot name an owned row
		return uuid.Nil, errs.ErrNotFound
	}
	return id, nil
}
