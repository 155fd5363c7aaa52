package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/Raimguhinov/linkal/internal/aggregator"
	"github.com/Raimguhinov/linkal/internal/apperr"
	"github.com/Raimguhinov/linkal/internal/auth"
	"github.com/Raimguhinov/linkal/internal/dav"
	"github.com/Raimguhinov/linkal/internal/usecase/etag"
	"github.com/Raimguhinov/linkal/pkg/logger"
)

const (
	contentTypeXML      = "application/xml; charset=utf-8"
	contentTypeCalendar = "text/calendar; charset=utf-8"

	davCapabilities = "1, extended-mkcol, access-control"
	davAllow        = "OPTIONS, GET, HEAD, DELETE, PROPFIND, PUT, PROPPATCH, COPY, MOVE, REPORT"
)

var proxyResources = []string{"calendar-proxy-read", "calendar-proxy-write"}

type davHandler struct {
	synth   *dav.Synthesizer
	agg     *aggregator.Aggregator
	l       *logger.Logger
	maxBody int64
}

// index answers GET / with the root and principal collection entries.
func (h *davHandler) index(w http.ResponseWriter, r *http.Request) {
	req := &dav.PropfindRequest{Props: []dav.PropName{dav.PropCurrentUserPrincipal}}

	ms := dav.NewMultistatus()
	ms.Add(
		h.synth.Response(req, "/", false),
		h.synth.Response(req, dav.PrincipalsPath, false),
	)
	writeMultistatus(w, http.StatusMultiStatus, ms.Bytes())
}

// root answers PROPFIND and OPTIONS on /. Depth 1 adds the principal collection.
func (h *davHandler) root(w http.ResponseWriter, r *http.Request) {
	req, depth, ok := h.propfind(w, r, dav.ParsePropfind)
	if !ok {
		return
	}

	ms := dav.NewMultistatus()
	ms.Add(h.synth.Response(req, "/", false))
	if depth != dav.DepthZero {
		ms.Add(h.synth.Response(req, dav.PrincipalsPath, false))
	}
	if r.Method == http.MethodOptions {
		setCapabilities(w, false)
	}
	writeMultistatus(w, http.StatusMultiStatus, ms.Bytes())
}

// principals answers the principal collection itself.
func (h *davHandler) principals(w http.ResponseWriter, r *http.Request) {
	req, depth, ok := h.propfind(w, r, parserFor(r.Method))
	if !ok {
		return
	}

	ms := dav.NewMultistatus()
	ms.Add(h.synth.Response(req, dav.PrincipalsPath, false))
	if depth != dav.DepthZero {
		ms.Add(h.synth.Response(req, h.synth.Catalog().PrincipalHref(), true))
	}
	if r.Method == http.MethodOptions {
		setCapabilities(w, false)
	}
	writeMultistatus(w, http.StatusMultiStatus, ms.Bytes())
}

// principal answers the gateway's principal and its proxy resources.
func (h *davHandler) principal(w http.ResponseWriter, r *http.Request) {
	catalog := h.synth.Catalog()
	if chi.URLParam(r, "name") != catalog.Principal() {
		h.writeError(w, r, fmt.Errorf("app - principal: %w", errUnknownPrincipal))
		return
	}

	href := catalog.PrincipalHref()
	proxy := chi.URLParam(r, "proxy")
	if proxy != "" {
		if !slices.Contains(proxyResources, proxy) {
			h.writeError(w, r, fmt.Errorf("app - principal: %w", errUnknownPrincipal))
			return
		}
		href = path.Join(href, proxy) + "/"
	}

	req, depth, ok := h.propfind(w, r, parserFor(r.Method))
	if !ok {
		return
	}

	ms := dav.NewMultistatus()
	ms.Add(h.synth.Response(req, href, true))
	if proxy == "" && depth != dav.DepthZero {
		for _, p := range proxyResources {
			ms.Add(h.synth.Response(req, path.Join(href, p)+"/", true))
		}
	}
	if r.Method == http.MethodOptions {
		setCapabilities(w, false)
	}
	writeMultistatus(w, http.StatusMultiStatus, ms.Bytes())
}

// collection aggregates every registry calendar under /cals/.
func (h *davHandler) collection(w http.ResponseWriter, r *http.Request) {
	depth, err := dav.ParseDepth(r.Header.Get("Depth"), true, dav.DepthZero)
	if err == nil && depth == dav.DepthInfinity {
		err = apperr.Malformedf("app - collection", "Depth infinity is not supported on %s", dav.CollectionPath)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := h.readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.agg.Collection(r.Context(), r.Method, depth, body)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("app - collection: %w", err))
		return
	}
	writeMultistatus(w, http.StatusMultiStatus, out)
}

// resource forwards to one calendar or one of its objects.
func (h *davHandler) resource(w http.ResponseWriter, r *http.Request) {
	depth, err := dav.ParseDepth(r.Header.Get("Depth"), false, dav.DepthZero)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := h.readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	segment := chi.URLParam(r, "segment")
	object := chi.URLParam(r, "*")
	out, err := h.agg.Resource(r.Context(), segment, object, r.Method, depth, body)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("app - resource: %w", err))
		return
	}
	writeMultistatus(w, http.StatusMultiStatus, out)
}

// proppatch acknowledges the patch without forwarding it.
func (h *davHandler) proppatch(w http.ResponseWriter, r *http.Request) {
	body, err := h.readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	href := dav.CollectionPath
	if segment := chi.URLParam(r, "segment"); segment != "" {
		if _, ok := h.agg.Calendar(segment); !ok {
			h.writeError(w, r, apperr.UnknownCalendar("app - proppatch", segment))
			return
		}
		href = path.Join(dav.CollectionPath, segment) + "/"
	}

	out, err := dav.AcknowledgePropPatch(body, href)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMultistatus(w, http.StatusMultiStatus, out)
}

// export serves the whole calendar as iCalendar.
func (h *davHandler) export(w http.ResponseWriter, r *http.Request) {
	exp, err := h.agg.Export(r.Context(), chi.URLParam(r, "segment"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("app - export: %w", err))
		return
	}

	w.Header().Set("ETag", exp.ETag)
	if etag.Match(r.Header.Get("If-None-Match"), exp.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentTypeCalendar)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(exp.Data)
	}
}

// object passes a calendar object through unchanged.
func (h *davHandler) object(w http.ResponseWriter, r *http.Request) {
	data, err := h.agg.Object(r.Context(), chi.URLParam(r, "segment"), chi.URLParam(r, "*"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("app - object: %w", err))
		return
	}

	if tag, err := etag.FromData(data); err == nil {
		w.Header().Set("ETag", tag)
	}
	w.Header().Set("Content-Type", contentTypeCalendar)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// options is the static capability answer.
func options(calendarAccess bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCapabilities(w, calendarAccess)
		w.WriteHeader(http.StatusMultiStatus)
	}
}

func setCapabilities(w http.ResponseWriter, calendarAccess bool) {
	caps := davCapabilities
	if calendarAccess {
		caps += ", calendar-access"
	}
	w.Header().Set("DAV", caps)
	w.Header().Set("Allow", davAllow)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok\n")
}

type requestParser func([]byte) (*dav.PropfindRequest, error)

func parserFor(method string) requestParser {
	if method == "REPORT" {
		return dav.ParseReportProps
	}
	return dav.ParsePropfind
}

// propfind reads the body and Depth of a synthesized request. It writes the
// error response itself and reports false on failure.
func (h *davHandler) propfind(w http.ResponseWriter, r *http.Request, parse requestParser) (*dav.PropfindRequest, dav.Depth, bool) {
	depth, err := dav.ParseDepth(r.Header.Get("Depth"), false, dav.DepthZero)
	if err != nil {
		h.writeError(w, r, err)
		return nil, 0, false
	}
	body, err := h.readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return nil, 0, false
	}
	req, err := parse(body)
	if err != nil {
		h.writeError(w, r, err)
		return nil, 0, false
	}
	return req, depth, true
}

func (h *davHandler) readBody(r *http.Request) ([]byte, error) {
	const op = "app - readBody"

	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBody+1))
	if err != nil {
		return nil, apperr.Malformed(op, err)
	}
	if int64(len(body)) > h.maxBody {
		return nil, apperr.Malformedf(op, "body exceeds %d bytes", h.maxBody)
	}
	if !utf8.Valid(body) {
		return nil, apperr.Malformedf(op, "body is not valid UTF-8")
	}
	return body, nil
}

var errUnknownPrincipal = errors.New("unknown principal")

// writeError sends the short diagnostic for err. Nothing else has been
// written to w at this point.
func (h *davHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	body := apperr.Body(err)
	if errors.Is(err, errUnknownPrincipal) {
		status, body = http.StatusNotFound, errUnknownPrincipal.Error()
	}

	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		logger.Err(err),
	}
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		attrs = append(attrs, slog.String("user", id.User))
	}
	switch {
	case errors.Is(r.Context().Err(), context.Canceled):
		h.l.Info("client went away", attrs...)
	case status >= http.StatusInternalServerError:
		h.l.Error("request failed", attrs...)
	default:
		h.l.Warn("request rejected", attrs...)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, strings.TrimSpace(body)+"\n")
}

func writeMultistatus(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", contentTypeXML)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
