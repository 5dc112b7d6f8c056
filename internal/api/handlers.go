package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"grievance-intake-go/internal/actionable"
	"grievance-intake-go/internal/aggregator"
	"grievance-intake-go/internal/assistant"
	"grievance-intake-go/internal/dataset"
	"grievance-intake-go/internal/storage"
	"grievance-intake-go/internal/types"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	audioExts = map[string]bool{".mp3": true, ".wav": true, ".m4a": true, ".ogg": true, ".webm": true}
	photoExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
)

// submitRequest is accepted as JSON or multipart form. fullName, mobile and
// pincode are the field names older clients send.
type submitRequest struct {
	ContactName   string `json:"contactName" form:"contactName"`
	FullName      string `json:"fullName" form:"fullName"`
	ContactMobile string `json:"contactMobile" form:"contactMobile"`
	Mobile        string `json:"mobile" form:"mobile"`
	AreaCode      string `json:"areaCode" form:"areaCode"`
	Pincode       string `json:"pincode" form:"pincode"`
	Language      string `json:"language" form:"language"`
	ComplaintText string `json:"complaintText" form:"complaintText"`
	IsVoice       bool   `json:"isVoice" form:"isVoice"`
}

func (r submitRequest) metadata() types.ContactMetadata {
	return types.ContactMetadata{
		Name:     firstNonEmpty(r.ContactName, r.FullName),
		Mobile:   firstNonEmpty(r.ContactMobile, r.Mobile),
		AreaCode: firstNonEmpty(r.AreaCode, r.Pincode),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (h *Handler) health(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (h *Handler) submitComplaint(c *gin.Context) {
	actor := actorFrom(c)
	// Headroom for the text fields around the two files.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.MaxUploadBytes+(1<<20))

	var req submitRequest
	if err := c.ShouldBind(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub := types.Submission{
		SubmitterID: actor.ID,
		Metadata:    req.metadata(),
		Language:    types.Language(strings.ToLower(strings.TrimSpace(req.Language))),
		Text:        req.ComplaintText,
		IsAudio:     req.IsVoice,
	}
	if sub.Language == "" {
		sub.Language = types.LanguageEnglish
	}

	if audio, err := c.FormFile("audio"); err == nil {
		data, err := h.readUpload(audio, audioExts)
		if err != nil {
			h.fail(c, err)
			return
		}
		sub.Audio = data
		sub.IsAudio = true
	}

	if photo, err := c.FormFile("photo"); err == nil {
		ref, err := h.savePhoto(c, photo)
		if err != nil {
			h.fail(c, err)
			return
		}
		sub.AttachmentRef = ref
	}

	res, err := h.Pipeline.Submit(c.Request.Context(), sub)
	if err != nil {
		if sub.AttachmentRef != "" {
			if derr := h.Attachments.Delete(c.Request.Context(), sub.AttachmentRef); derr != nil {
				h.requestLog(c).WithError(derr).Warn("orphaned attachment not removed")
			}
		}
		h.fail(c, err)
		return
	}

	ok(c, http.StatusCreated, gin.H{
		"message":      "Complaint submitted successfully",
		"complaint":    res.Record,
		"classifiedBy": res.Strategy,
		"degraded":     res.Degraded,
	})
}

func (h *Handler) readUpload(fh *multipart.FileHeader, allowed map[string]bool) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowed[ext] {
		return nil, &types.ValidationError{Field: "file", Message: fmt.Sprintf("unsupported file type %q", ext)}
	}
	if fh.Size > h.MaxUploadBytes {
		return nil, &types.ValidationError{Field: "file", Message: fmt.Sprintf("file exceeds %d MB limit", h.MaxUploadBytes>>20)}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, h.MaxUploadBytes))
}

func (h *Handler) savePhoto(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	if h.Attachments == nil {
		return "", &types.ValidationError{Field: "photo", Message: "photo uploads are not enabled"}
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !photoExts[ext] {
		return "", &types.ValidationError{Field: "photo", Message: "only image files are allowed"}
	}
	if fh.Size > h.MaxUploadBytes {
		return "", &types.ValidationError{Field: "photo", Message: fmt.Sprintf("file exceeds %d MB limit", h.MaxUploadBytes>>20)}
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.Attachments.Save(c.Request.Context(), fh.Filename, f)
}

func (h *Handler) myComplaints(c *gin.Context) {
	records, err := h.Store.ListBySubmitter(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"count": len(records), "complaints": records})
}

// getComplaint lets citizens read their own complaints only. The latest
// remarks are rendered in the complaint's source language for them.
func (h *Handler) getComplaint(c *gin.Context) {
	actor := actorFrom(c)
	rec, err := h.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if actor.Role == RoleCitizen && rec.SubmitterID != actor.ID {
		h.fail(c, types.ErrForbidden)
		return
	}

	body := gin.H{"complaint": rec}
	if last, found := rec.LastEntry(); found && last.Remarks != nil && actor.Role == RoleCitizen && h.Localizer != nil {
		body["localizedRemarks"] = h.Localizer.FromEnglish(c.Request.Context(), *last.Remarks, rec.SourceLanguage)
	}
	ok(c, http.StatusOK, body)
}

func (h *Handler) suggestCategory(c *gin.Context) {
	var req struct {
		ComplaintText string `json:"complaintText"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ComplaintText) == "" {
		abort(c, http.StatusBadRequest, "Complaint text is required")
		return
	}
	res := h.Classifier.Suggest(c.Request.Context(), req.ComplaintText)
	ok(c, http.StatusOK, gin.H{"suggestion": res})
}

func (h *Handler) filterFrom(c *gin.Context) (storage.Filter, error) {
	f := storage.Filter{
		AreaCode:   strings.TrimSpace(c.Query("areaCode")),
		Department: strings.TrimSpace(c.Query("department")),
	}
	if s := c.Query("status"); s != "" {
		st, err := types.ParseStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	if s := c.Query("category"); s != "" {
		cat, err := types.ParseCategory(s)
		if err != nil {
			return f, err
		}
		f.Category = cat
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if s := c.Query(name); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return f, &types.ValidationError{Field: name, Message: fmt.Sprintf("%s must be a non-negative integer", name)}
			}
			*dst = n
		}
	}
	return f, nil
}

func (h *Handler) listComplaints(c *gin.Context) {
	f, err := h.filterFrom(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	records, err := h.Store.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"count": len(records), "complaints": records})
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req struct {
		Status  string `json:"status"`
		Remarks string `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	rec, err := h.Workflow.Transition(c.Request.Context(), c.Param("id"), req.Status, actorFrom(c).ID, req.Remarks)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Complaint status updated successfully", "complaint": rec})
}

func (h *Handler) stats(c *gin.Context) {
	s, err := aggregator.Compute(c.Request.Context(), h.Store)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"stats": s, "actionCard": actionable.Generate(s)})
}

// export streams the filtered complaints and their statistics as xlsx.
func (h *Handler) export(c *gin.Context) {
	f, err := h.filterFrom(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	records, err := h.Store.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	name := fmt.Sprintf("complaints-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Status(http.StatusOK)
	if err := dataset.WriteReport(c.Writer, records, aggregator.Aggregate(records)); err != nil {
		h.requestLog(c).WithError(err).Error("export not written")
	}
}

func (h *Handler) chat(c *gin.Context) {
	var req struct {
		Query   string            `json:"query"`
		Context assistant.Context `json:"context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		abort(c, http.StatusBadRequest, "Query is required")
		return
	}
	answer := h.Assistant.Assist(c.Request.Context(), req.Query, req.Context)
	ok(c, http.StatusOK, gin.H{"response": answer})
}

func (h *Handler) improve(c *gin.Context) {
	var req struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		abort(c, http.StatusBadRequest, "Text is required")
		return
	}
	lang, err := types.ParseLanguage(strings.ToLower(strings.TrimSpace(req.Language)))
	if err != nil {
		h.fail(c, err)
		return
	}
	improved := h.Assistant.Improve(c.Request.Context(), req.Text, lang)
	ok(c, http.StatusOK, gin.H{"improvedText": improved, "changed": improved != req.Text})
}
