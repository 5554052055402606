// Package ingest exposes the asynchronous observation intake endpoint.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"fitmatch/internal/dispatch"
	"fitmatch/internal/httputil"
	"fitmatch/internal/logging"
	"fitmatch/internal/result/model"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	RunID string `json:"runId"`
	Data  []struct {
		X         float64   `json:"x"`
		Y         float64   `json:"y"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"data"`
}

func NewHandler(cfg *Config, collector dispatch.Collector) (http.Handler, error) {
	s := &handler{
		collector: collector,
		cfg:       cfg,
	}
	return s, nil
}

type handler struct {
	collector dispatch.Collector
	cfg       *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if req.RunID == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "runId is required"}`)
		return
	}

	defer func() {
		logger.Infof("ingested %d observations for run %s", len(req.Data), req.RunID)
	}()
	go func() {
		sort.Slice(req.Data, func(i, j int) bool {
			return req.Data[i].CreatedAt.Before(req.Data[j].CreatedAt)
		})
		for _, dat := range req.Data {
			if err := h.collector.Collect(
				model.NewMatch(req.RunID, dat.X, dat.Y, dat.CreatedAt),
			); err != nil {
				logger.Errorf("error sending to collect service: %v", err)
			}
		}
	}()
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status": "ok"}`)
}
