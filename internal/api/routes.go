package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stepcut/stepcut-agent/internal/config"
	"github.com/stepcut/stepcut-agent/internal/editor"
	"github.com/stepcut/stepcut-agent/internal/export"
	"github.com/stepcut/stepcut-agent/internal/validate"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.RequestMiddleware)
	}

	r.Get("/health", healthHandler(cfg))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler(func() {
			cfg.Metrics.SetActiveSessions(cfg.Sessions.Count())
		}))
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Post("/sessions", createSessionHandler(cfg))
		r.Get("/sessions/{id}", getSessionHandler(cfg))
		r.Delete("/sessions/{id}", closeSessionHandler(cfg))

		r.Post("/sessions/{id}/video", attachVideoHandler(cfg))
		r.Put("/sessions/{id}/segments", setSegmentsHandler(cfg))
		r.Post("/sessions/{id}/segments", addSegmentHandler(cfg))
		r.Delete("/sessions/{id}/segments/active", deleteActiveHandler(cfg))
		r.Post("/sessions/{id}/segments/reset", resetSegmentsHandler(cfg))
		r.Patch("/sessions/{id}/segments/{segmentID}", updateSegmentHandler(cfg))
		r.Post("/sessions/{id}/navigate", navigateHandler(cfg))
		r.Post("/sessions/{id}/settle", settleHandler(cfg))
		r.Post("/sessions/{id}/mark", markHandler(cfg))
		r.Post("/sessions/{id}/trim", trimHandler(cfg))
		r.Post("/sessions/{id}/trim/flush", trimFlushHandler(cfg))
		r.Post("/sessions/{id}/description", descriptionHandler(cfg))
		r.Get("/sessions/{id}/validate", validateHandler(cfg))

		r.Post("/sessions/{id}/media/events", mediaEventHandler(cfg))
		r.Get("/sessions/{id}/media/commands", mediaCommandsHandler(cfg))

		r.Post("/sessions/{id}/draft", saveDraftHandler(cfg))
		r.Post("/sessions/{id}/draft/{draftID}/load", loadDraftHandler(cfg))
		r.Get("/drafts", listDraftsHandler(cfg))
		r.Get("/drafts/{id}", getDraftHandler(cfg))
		r.Post("/drafts/{id}/thumbnails", thumbnailsHandler(cfg))
		r.Post("/drafts/{id}/submit", submitHandler(cfg))
		r.Post("/export", exportHandler(cfg))

		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))

		r.Get("/playback/file", playbackHandler(cfg))
	})

	return r
}

// runtimeOr404 resolves the session runtime or writes the error itself.
func runtimeOr404(cfg ServerConfig, w http.ResponseWriter, r *http.Request) *SessionRuntime {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "session id required", "BAD_REQUEST")
		return nil
	}
	rt := cfg.Sessions.Get(id)
	if rt == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return nil
	}
	return rt
}

func countSegmentOp(cfg ServerConfig) {
	if cfg.Metrics != nil {
		cfg.Metrics.IncSegmentOps()
	}
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		drafts, _ := cfg.Repository.ListDrafts(ctx)
		recentJobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range recentJobs {
			if j.Status == editor.JobStatusRunning {
				state = "working"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == editor.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:         state,
			LastError:     lastError,
			SessionsCount: cfg.Sessions.Count(),
			DraftsCount:   len(drafts),
			JobsRunning:   jobsRunning,
			ActiveJob:     activeJob,
		})
	}
}

func createSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := cfg.Sessions.Create()
		WriteJSON(w, http.StatusCreated, CreateSessionResponse{
			SessionID: rt.Session.ID(),
			Snapshot:  rt.Session.Snapshot(),
		})
	}
}

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func closeSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !cfg.Sessions.Close(id) {
			WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func attachVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		var req AttachVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}
		if !validate.AcceptUpload(req.Path) {
			WriteError(w, http.StatusBadRequest, "unsupported video format", "BAD_REQUEST")
			return
		}

		url := "/playback/file?session_id=" + rt.Session.ID()
		rt.Session.AttachVideo(req.Path, url)
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func setSegmentsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "failed to read body", "BAD_REQUEST")
			return
		}

		raw, err := editor.ParseSegments(body)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid segments payload", "BAD_REQUEST")
			return
		}

		snap := rt.Session.Snapshot()
		rt.Session.SetAll(editor.CoerceSegments(raw, snap.Duration))
		countSegmentOp(cfg)
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func addSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		seg := rt.Session.Add()
		countSegmentOp(cfg)
		WriteJSON(w, http.StatusCreated, seg)
	}
}

func deleteActiveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		if !rt.Session.DeleteActive() {
			WriteError(w, http.StatusConflict, "cannot delete the only step", "CONFLICT")
			return
		}
		countSegmentOp(cfg)
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func resetSegmentsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		rt.Session.ResetAll()
		countSegmentOp(cfg)
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func updateSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		segmentID := chi.URLParam(r, "segmentID")
		var req UpdateSegmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		found := rt.Session.UpdateByID(segmentID, func(editor.Segment) editor.SegmentPatch {
			return editor.SegmentPatch{
				Description: req.Description,
				StartTime:   req.StartTime,
				EndTime:     req.EndTime,
			}
		})
		if !found {
			WriteError(w, http.StatusNotFound, "segment not found", "NOT_FOUND")
			return
		}
		countSegmentOp(cfg)
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func navigateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		var req NavigateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		dir := editor.Direction(req.Direction)
		if dir != editor.DirectionPrevious && dir != editor.DirectionNext {
			WriteError(w, http.StatusBadRequest, "direction must be previous or next", "BAD_REQUEST")
			return
		}

		rt.Session.Navigate(dir)
		countSegmentOp(cfg)
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func settleHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		rt.Session.SettleTransition()
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func markHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		var req MarkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		t := rt.Session.Snapshot().CurrentTime
		if req.Time != nil {
			t = *req.Time
		}

		var ok bool
		switch req.Boundary {
		case "start":
			ok = rt.Session.MarkStart(t)
		case "end":
			ok = rt.Session.MarkEnd(t)
		default:
			WriteError(w, http.StatusBadRequest, "boundary must be start or end", "BAD_REQUEST")
			return
		}
		if !ok {
			WriteError(w, http.StatusConflict, "no active step to mark", "CONFLICT")
			return
		}
		countSegmentOp(cfg)
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func trimHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		var req TrimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if !rt.Debouncer.Schedule(req.Values) {
			WriteError(w, http.StatusBadRequest, "trim requires exactly two values", "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func trimFlushHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		rt.Debouncer.Flush()
		if cfg.Metrics != nil {
			cfg.Metrics.IncTrimCommits()
		}
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func descriptionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		var req DescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if !rt.Session.SetDescription(req.Text) {
			WriteError(w, http.StatusConflict, "no active step", "CONFLICT")
			return
		}
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func validateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		errs := validate.Check(rt.Session.Snapshot())
		rt.Session.SetErrors(errs)
		WriteJSON(w, http.StatusOK, ValidationResponse{Valid: len(errs) == 0, Errors: errs})
	}
}

func mediaEventHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		var req MediaEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := rt.Handle.HandleEvent(req.Kind, req.Value); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func mediaCommandsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		drained := rt.Handle.DrainCommands()
		resp := MediaCommandsResponse{Commands: make([]MediaCommand, len(drained))}
		for i, c := range drained {
			resp.Commands[i] = MediaCommand{Op: c.Op, Time: c.Time}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func saveDraftHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		var req SaveDraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		// Flush any in-flight trim so the draft matches what the user sees.
		rt.Debouncer.Flush()
		snap := rt.Session.Snapshot()

		now := time.Now().UTC()
		draft := &editor.Draft{
			ID:        editor.NewSessionID(),
			RecipeID:  req.RecipeID,
			Title:     req.Title,
			VideoPath: snap.VideoPath,
			VideoURL:  snap.VideoURL,
			Duration:  snap.Duration,
			Segments:  snap.Segments,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := cfg.Repository.SaveDraft(r.Context(), draft); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to save draft", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusCreated, SaveDraftResponse{DraftID: draft.ID})
	}
}

func loadDraftHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeOr404(cfg, w, r)
		if rt == nil {
			return
		}

		draftID := chi.URLParam(r, "draftID")
		draft, err := cfg.Repository.GetDraft(r.Context(), draftID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if draft == nil {
			WriteError(w, http.StatusNotFound, "draft not found", "NOT_FOUND")
			return
		}

		rt.Session.AttachVideo(draft.VideoPath, draft.VideoURL)
		rt.Session.SetDuration(draft.Duration)
		rt.Session.SetAll(draft.Segments)
		WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}

func listDraftsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drafts, err := cfg.Repository.ListDrafts(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list drafts", "INTERNAL_ERROR")
			return
		}

		resp := DraftsResponse{Drafts: make([]DraftResponse, len(drafts))}
		for i, d := range drafts {
			resp.Drafts[i] = DraftToResponse(d)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getDraftHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		draft, err := cfg.Repository.GetDraft(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if draft == nil {
			WriteError(w, http.StatusNotFound, "draft not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, DraftToResponse(draft))
	}
}

func thumbnailsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draftID := chi.URLParam(r, "id")
		draft, err := cfg.Repository.GetDraft(r.Context(), draftID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if draft == nil {
			WriteError(w, http.StatusNotFound, "draft not found", "NOT_FOUND")
			return
		}

		job := newJob(editor.JobTypeThumbnails, draftID)
		if err := cfg.Repository.CreateJob(r.Context(), job); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to queue job", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusAccepted, JobCreatedResponse{JobID: job.ID})
	}
}

func submitHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draftID := chi.URLParam(r, "id")
		draft, err := cfg.Repository.GetDraft(r.Context(), draftID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if draft == nil {
			WriteError(w, http.StatusNotFound, "draft not found", "NOT_FOUND")
			return
		}

		if errs := validate.CheckDraft(draft); len(errs) > 0 {
			WriteJSON(w, http.StatusUnprocessableEntity, ValidationResponse{Valid: false, Errors: errs})
			return
		}

		job := newJob(editor.JobTypeSubmit, draftID)
		if err := cfg.Repository.CreateJob(r.Context(), job); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to queue job", "INTERNAL_ERROR")
			return
		}
		if cfg.Metrics != nil {
			cfg.Metrics.IncSubmissions()
		}
		WriteJSON(w, http.StatusAccepted, JobCreatedResponse{JobID: job.ID})
	}
}

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		resp, err := cfg.Exporter.Export(r.Context(), req)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recentJobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(recentJobs))}
		for i, j := range recentJobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			WriteError(w, http.StatusBadRequest, "session_id is required", "BAD_REQUEST")
			return
		}

		rt := cfg.Sessions.Get(sessionID)
		if rt == nil {
			WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
			return
		}

		snap := rt.Session.Snapshot()
		if snap.VideoPath == "" {
			WriteError(w, http.StatusNotFound, "session has no local video", "NOT_FOUND")
			return
		}

		if err := cfg.FileServer.ServeFile(w, r, snap.VideoPath); err != nil {
			cfg.Logger.Error("playback error", "error", err, "session_id", sessionID)
		}
	}
}

func newJob(jobType, draftID string) *editor.Job {
	now := time.Now().UTC()
	return &editor.Job{
		ID:        editor.NewSessionID(),
		Type:      jobType,
		Status:    editor.JobStatusPending,
		DraftID:   draftID,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
