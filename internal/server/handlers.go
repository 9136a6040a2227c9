package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pkgexplorer/pkg/depgraph"
	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/explorer"
)

func requiredParam(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", apperrors.New(apperrors.ErrCodeInvalidInput, "missing query parameter %q", name)
	}
	return v, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperrors.New(apperrors.ErrCodeInvalidInput, "query parameter %q must be a non-negative integer", name)
	}
	return n, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.New(apperrors.ErrCodeInvalidInput, "query parameter %q must be a boolean", name)
	}
	return b, nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := requiredParam(r, "q")
	if err != nil {
		writeError(w, r, err)
		return
	}
	size, err := intParam(r, "size", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.app.NPM.Search(r.Context(), q, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	name, err := requiredParam(r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	pkg, err := s.app.NPM.FetchPackage(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	name, err := requiredParam(r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.app.Explorer.Overview(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	raw, err := requiredParam(r, "names")
	if err != nil {
		writeError(w, r, err)
		return
	}
	cmp, err := s.app.Explorer.Compare(r.Context(), explorer.ParseNames(raw))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleDownloads(w http.ResponseWriter, r *http.Request) {
	name, err := requiredParam(r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	period := r.URL.Query().Get("period")
	daily, err := boolParam(r, "daily")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var res any
	if daily {
		res, err = s.app.NPM.DownloadRange(r.Context(), name, period)
	} else {
		res, err = s.app.NPM.Downloads(r.Context(), name, period)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	name, err := requiredParam(r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	size, err := s.app.Bundle.FetchSize(r.Context(), name, r.URL.Query().Get("version"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, size)
}

func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	m, err := s.app.Repo(r.Context(), r.URL.Query().Get("host"), chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

var contentTypes = map[string]string{
	depgraph.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	depgraph.FormatSVG:  "image/svg+xml",
	depgraph.FormatJSON: "application/json",
}

func (s *Server) handleDeps(w http.ResponseWriter, r *http.Request) {
	name, err := requiredParam(r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = depgraph.FormatJSON
	}
	if _, ok := contentTypes[format]; !ok {
		writeError(w, r, apperrors.New(apperrors.ErrCodeInvalidFormat,
			"unsupported format %q (want one of %s)", format, strings.Join(depgraph.Formats, ", ")))
		return
	}

	var opts depgraph.Options
	if opts.MaxDepth, err = intParam(r, "depth", 0); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.MaxNodes, err = intParam(r, "max_nodes", 0); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Peer, err = boolParam(r, "peer"); err != nil {
		writeError(w, r, err)
		return
	}

	g, err := s.app.Graph(r.Context(), name, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := g.Render(r.Context(), format, depgraph.DOTOptions{Detailed: true})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
