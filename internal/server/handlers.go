package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/and161185/linstor-dashboard/internal/buildinfo"
	"github.com/and161185/linstor-dashboard/internal/errs"
	"github.com/and161185/linstor-dashboard/model"
	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (srv *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		srv.logger().Errorw("failed to write response JSON", "error", err)
	}
}

func (srv *Server) writeError(w http.ResponseWriter, status int, err error) {
	srv.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (srv *Server) status() model.FetchStatus {
	if srv.Poller == nil {
		return model.FetchStatus{}
	}
	return srv.Poller.Status()
}

// view returns the zero snapshot in the awaiting_data state until the first
// snapshot is stored.
func (srv *Server) view(r *http.Request) (model.DashboardView, error) {
	view := model.DashboardView{Status: srv.status()}

	snap, err := srv.Storage.Latest(r.Context())
	switch {
	case errors.Is(err, errs.ErrSnapshotNotFound):
		view.State = model.AwaitingData
		view.Snapshot = model.EmptySnapshot()
		return view, nil
	case err != nil:
		return view, err
	}

	view.State = model.DataAvailable
	view.Snapshot = *snap
	return view, nil
}

// DashboardHandler serves the whole DashboardView.
func (srv *Server) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	view, err := srv.view(r)
	if err != nil {
		srv.logger().Errorw("failed to load latest snapshot", "error", err)
		srv.writeError(w, http.StatusInternalServerError, err)
		return
	}
	srv.writeJSON(w, http.StatusOK, view)
}

// SummaryHandler serves the summary card counts.
func (srv *Server) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	view, err := srv.view(r)
	if err != nil {
		srv.logger().Errorw("failed to load latest snapshot", "error", err)
		srv.writeError(w, http.StatusInternalServerError, err)
		return
	}
	srv.writeJSON(w, http.StatusOK, view.Snapshot.Summary)
}

// ChartHandler serves one chart: node, resource or volume.
func (srv *Server) ChartHandler(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	view, err := srv.view(r)
	if err != nil {
		srv.logger().Errorw("failed to load latest snapshot", "error", err)
		srv.writeError(w, http.StatusInternalServerError, err)
		return
	}

	var chart model.ChartData
	switch kind {
	case "node", "nodes":
		chart = view.Snapshot.Nodes
	case "resource", "resources":
		chart = view.Snapshot.Resources
	case "volume", "volumes":
		chart = view.Snapshot.Volumes
	default:
		http.NotFound(w, r)
		return
	}
	srv.writeJSON(w, http.StatusOK, chart)
}

// HistoryHandler serves stored snapshots, newest first.
func (srv *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	history, err := srv.Storage.History(r.Context(), limit)
	if err != nil {
		srv.logger().Errorw("failed to load snapshot history", "error", err)
		srv.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if history == nil {
		history = []model.Snapshot{}
	}
	srv.writeJSON(w, http.StatusOK, history)
}

// RefreshHandler fetches a fresh snapshot right away.
func (srv *Server) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if srv.Poller == nil {
		http.Error(w, "refresh unavailable", http.StatusServiceUnavailable)
		return
	}

	snap, err := srv.Poller.Refresh(r.Context())
	switch {
	case err == nil:
		srv.writeJSON(w, http.StatusOK, model.DashboardView{
			State:    model.DataAvailable,
			Status:   srv.status(),
			Snapshot: *snap,
		})
	case errors.Is(err, context.Canceled):
		srv.logger().Debugw("manual refresh abandoned by client")
	case errors.Is(err, errs.ErrStaleSnapshot):
		srv.writeError(w, http.StatusConflict, err)
	case errors.Is(err, errs.ErrFetchFailed),
		errors.Is(err, errs.ErrMalformedExposition),
		errors.Is(err, errs.ErrFamilyNotFound):
		srv.writeError(w, http.StatusBadGateway, err)
	default:
		srv.logger().Errorw("manual refresh failed", "error", err)
		srv.writeError(w, http.StatusInternalServerError, err)
	}
}

// ControllerHandler reports the LINSTOR controller version.
func (srv *Server) ControllerHandler(w http.ResponseWriter, r *http.Request) {
	if srv.Controller == nil {
		http.Error(w, "controller probe unavailable", http.StatusServiceUnavailable)
		return
	}

	info, err := srv.Controller.Version(r.Context())
	if err != nil {
		srv.writeError(w, http.StatusBadGateway, err)
		return
	}
	srv.writeJSON(w, http.StatusOK, info)
}

// PingHandler checks the storage connection.
func (srv *Server) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := srv.Storage.Ping(r.Context()); err != nil {
		srv.logger().Errorw("storage ping failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// VersionHandler serves the build information.
func (srv *Server) VersionHandler(w http.ResponseWriter, r *http.Request) {
	srv.writeJSON(w, http.StatusOK, buildinfo.Get())
}
