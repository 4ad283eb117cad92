package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/export"
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// photoMaxAge is the browser cache lifetime of profile photos, in seconds.
const photoMaxAge = 3600

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, pipeline.FormatXLSX)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, strings.ToLower(chi.URLParam(r, "format")))
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, format string) {
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := s.requestOptions(r)
	if err := applyExportQuery(&opts, r); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}

	ctx := r.Context()
	h, err := s.hierarchy(ctx, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.runner.Layout(ctx, h, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	treeHash := ""
	if data, err := pipeline.MarshalHierarchy(h); err == nil {
		treeHash = cache.Hash(data)
	}
	artifacts, err := s.runner.Render(ctx, t, h, treeHash, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	art := artifacts[format]

	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}

// applyExportQuery reads the chart options of an export request:
// viz, orientation, collapse, full, compact, avatars, scale and hidden
// (comma separated ids).
func applyExportQuery(opts *pipeline.Options, r *http.Request) error {
	q := r.URL.Query()
	opts.VizType = q.Get("viz")
	opts.Orientation = q.Get("orientation")
	opts.CollapseLevel = q.Get("collapse")

	var err error
	if opts.FullChart, err = boolParam(q.Get("full")); err != nil {
		return err
	}
	if opts.Compact, err = optionalBool(q, "compact"); err != nil {
		return err
	}
	if opts.Avatars, err = optionalBool(q, "avatars"); err != nil {
		return err
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 || scale > 8 {
			return orgerr.New(orgerr.ErrCodeInvalidInput, "invalid scale %q", v)
		}
		opts.Scale = scale
	}
	for _, id := range strings.Split(q.Get("hidden"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			opts.Hidden = append(opts.Hidden, id)
		}
	}
	return nil
}

func boolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, orgerr.New(orgerr.ErrCodeInvalidInput, "invalid boolean %q", v)
	}
	return b, nil
}

func optionalBool(q map[string][]string, key string) (*bool, error) {
	vals, ok := q[key]
	if !ok || len(vals) == 0 || vals[0] == "" {
		return nil, nil
	}
	b, err := boolParam(vals[0])
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// handlePhoto serves a profile photo, or the placeholder icon when the
// employee has none.
func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", photoMaxAge))

	data, err := export.ReadPhoto(s.cfg.PhotoDir, id)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("read photo failed", "id", id, "error", err)
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(export.DefaultIconSVG))
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	_, _ = w.Write(data)
}
