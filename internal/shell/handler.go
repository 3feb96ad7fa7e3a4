package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/form"
	"github.com/onexcrm/onexcrm/internal/masterdata/shared"
	"github.com/onexcrm/onexcrm/internal/page"
	"github.com/onexcrm/onexcrm/internal/platform/httpx"
	"github.com/onexcrm/onexcrm/internal/rates"
	"github.com/onexcrm/onexcrm/internal/tableview"
)

var errStaleToken = errors.New("shell: remove confirmation expired")

// RatesSource serves the currency window.
type RatesSource interface {
	Rates(ctx context.Context) (rates.Rates, error)
}

// Handler routes window requests.
type Handler struct {
	logger  *slog.Logger
	rates   RatesSource
	windows map[string]*Window
	order   []string
	xlsx    string
}

// NewHandler builds an empty shell; add pages with Register.
func NewHandler(logger *slog.Logger, ratesSource RatesSource) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:  logger,
		rates:   ratesSource,
		windows: make(map[string]*Window),
		xlsx:    xlsxContentType(),
	}
}

func xlsxContentType() string {
	if typ := mime.TypeByExtension(".xlsx"); typ != "" {
		return typ
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Register opens a window for cfg under /pages/{slug}. cfg.UI is replaced
// by the shell.
func (h *Handler) Register(slug string, cfg page.Config) error {
	if _, ok := h.windows[slug]; ok {
		return fmt.Errorf("shell: window %s already registered", slug)
	}
	if cfg.Logger == nil {
		cfg.Logger = h.logger
	}
	w, err := newWindow(slug, cfg)
	if err != nil {
		return err
	}
	h.windows[slug] = w
	h.order = append(h.order, slug)
	return nil
}

// MountRoutes registers the shell routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/pages", h.listPages)
	r.Route("/pages/{entity}", func(r chi.Router) {
		r.Get("/", h.showPage)
		r.Post("/refresh", h.refresh)
		r.Post("/rows", h.addRow)
		r.Post("/rows/{row}", h.editRow)
		r.Post("/rows/{row}/activate", h.activateRow)
		r.Post("/rows/{row}/select", h.selectRow)
		r.Post("/rows/{row}/remove", h.askRemove)
		r.Post("/remove/{token}", h.confirmRemove)
		r.Post("/filter", h.filter)
		r.Post("/sort", h.sort)
		r.Post("/reset-order", h.resetOrder)
		r.Get("/export.xlsx", h.export)
	})
	r.Get("/rates", h.showRates)
}

type formRequest struct {
	Values map[string]string `json:"values"`
}

type filterRequest struct {
	Header string `json:"header"`
	Text   string `json:"text"`
	Date   string `json:"date"`
}

type sortRequest struct {
	Column int    `json:"column"`
	Order  string `json:"order"`
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

func (h *Handler) listPages(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Slug  string `json:"slug"`
		Title string `json:"title"`
	}
	out := make([]entry, 0, len(h.order))
	for _, slug := range h.order {
		out = append(out, entry{Slug: slug, Title: h.windows[slug].page.Schema().DisplayName + " List"})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) showPage(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(win *Window) (result, error) {
		return win.do(r.Context(), func() (page.Outcome, error) { return page.Outcome{}, nil })
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, page.Command{Action: page.ActionRefresh})
}

func (h *Handler) addRow(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	h.run(w, r, func(win *Window) (result, error) {
		return win.do(r.Context(), func() (page.Outcome, error) {
			win.ui.values = nonNil(req.Values)
			return win.page.Dispatch(r.Context(), page.Command{Action: page.ActionAdd})
		})
	})
}

func (h *Handler) editRow(w http.ResponseWriter, r *http.Request) {
	h.submitRow(w, r, page.ActionEdit)
}

// activateRow is a double-click: the row is selected and opened for editing.
func (h *Handler) activateRow(w http.ResponseWriter, r *http.Request) {
	h.submitRow(w, r, page.ActionActivate)
}

func (h *Handler) submitRow(w http.ResponseWriter, r *http.Request, action page.Action) {
	row, err := rowParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req formRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	h.run(w, r, func(win *Window) (result, error) {
		return win.do(r.Context(), func() (page.Outcome, error) {
			win.ui.values = nonNil(req.Values)
			return win.page.Dispatch(r.Context(), page.Command{Action: action, Row: row})
		})
	})
}

func (h *Handler) selectRow(w http.ResponseWriter, r *http.Request) {
	row, err := rowParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.dispatch(w, r, page.Command{Action: page.ActionSelect, Row: row})
}

func (h *Handler) askRemove(w http.ResponseWriter, r *http.Request) {
	row, err := rowParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.run(w, r, func(win *Window) (result, error) {
		return win.askRemove(r.Context(), row)
	})
}

func (h *Handler) confirmRemove(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	token := chi.URLParam(r, "token")
	h.run(w, r, func(win *Window) (result, error) {
		return win.confirmRemove(r.Context(), token, req.Confirm)
	})
}

func (h *Handler) filter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	var day time.Time
	if req.Date != "" {
		parsed, err := time.Parse(tableview.DateLayout, req.Date)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: date must be %s", httpx.ErrBadRequest, tableview.DateLayout))
			return
		}
		day = parsed
	}
	h.run(w, r, func(win *Window) (result, error) {
		return win.do(r.Context(), func() (page.Outcome, error) {
			ctx := r.Context()
			var out page.Outcome
			if req.Header != "" && req.Header != win.page.ActiveFilter().Column {
				var err error
				out, err = win.page.Dispatch(ctx, page.Command{Action: page.ActionFilterColumn, Header: req.Header})
				if err != nil {
					return out, err
				}
			}
			if !win.page.ActiveFilter().DateMode {
				return win.page.Dispatch(ctx, page.Command{Action: page.ActionFilterText, Text: req.Text})
			}
			if day.IsZero() {
				return out, nil
			}
			return win.page.Dispatch(ctx, page.Command{Action: page.ActionFilterDate, Date: day})
		})
	})
}

func (h *Handler) sort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	order := tableview.Ascending
	switch strings.ToLower(req.Order) {
	case "", "asc":
	case "desc":
		order = tableview.Descending
	default:
		httpx.RespondError(w, fmt.Errorf("%w: order must be asc or desc", httpx.ErrBadRequest))
		return
	}
	h.dispatch(w, r, page.Command{Action: page.ActionSort, Column: req.Column, Order: order})
}

func (h *Handler) resetOrder(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, page.Command{Action: page.ActionResetOrder})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	win, err := h.window(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var (
		buf  bytes.Buffer
		name string
	)
	_, err = win.do(r.Context(), func() (page.Outcome, error) {
		name = win.page.Schema().DisplayName + "s"
		return page.Outcome{}, win.page.Table().WriteXLSX(&buf, name)
	})
	if err != nil {
		if !errors.Is(err, entity.ErrNoConnection) {
			h.logger.ErrorContext(r.Context(), "export grid", slog.String("page", win.slug), slog.Any("error", err))
		}
		httpx.RespondError(w, classify(err))
		return
	}

	w.Header().Set("Content-Type", h.xlsx)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", strings.ToLower(name)+".xlsx"))
	_, _ = buf.WriteTo(w)
}

func (h *Handler) showRates(w http.ResponseWriter, r *http.Request) {
	if h.rates == nil {
		httpx.RespondError(w, fmt.Errorf("%w: rates are not configured", httpx.ErrUnavailable))
		return
	}
	got, err := h.rates.Rates(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "rates unavailable", slog.Any("error", err))
	}
	view := rates.NewView(got)
	view.Search(r.URL.Query().Get("q"))
	httpx.JSON(w, http.StatusOK, ratesView{
		Title:     "Currency Rates to USD",
		Headers:   rates.Headers,
		Rows:      view.Visible(),
		Available: err == nil,
	})
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, cmd page.Command) {
	h.run(w, r, func(win *Window) (result, error) {
		return win.do(r.Context(), func() (page.Outcome, error) {
			return win.page.Dispatch(r.Context(), cmd)
		})
	})
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, fn func(*Window) (result, error)) {
	win, err := h.window(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := fn(win)
	if err != nil {
		httpx.RespondError(w, classify(err))
		return
	}

	status := http.StatusOK
	if res.outcome.Err != nil {
		status, _ = httpx.Status(classify(res.outcome.Err))
	}
	if res.reopened != nil {
		// Only the name guard marks fields.
		status = http.StatusUnprocessableEntity
		if len(res.reopened.Marked) > 0 {
			status = http.StatusConflict
		}
	}

	httpx.JSON(w, status, res.view)
}

func (h *Handler) window(r *http.Request) (*Window, error) {
	slug := chi.URLParam(r, "entity")
	win, ok := h.windows[slug]
	if !ok {
		return nil, fmt.Errorf("%w: page %q", httpx.ErrNotFound, slug)
	}
	return win, nil
}

// classify wraps domain errors in the transport sentinel that picks the
// response status.
func classify(err error) error {
	switch {
	case errors.Is(err, page.ErrInvalidCommand):
		return fmt.Errorf("%w: %w", httpx.ErrBadRequest, err)
	case errors.Is(err, errStaleToken), errors.Is(err, entity.ErrNotFound):
		return fmt.Errorf("%w: %w", httpx.ErrNotFound, err)
	case errors.Is(err, entity.ErrNoConnection), errors.Is(err, form.ErrAborted):
		return fmt.Errorf("%w: %w", httpx.ErrUnavailable, err)
	case errors.Is(err, entity.ErrDuplicate), errors.Is(err, form.ErrDuplicateName):
		return fmt.Errorf("%w: %w", httpx.ErrDuplicate, err)
	case errors.Is(err, shared.ErrValidation):
		return fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	default:
		return err
	}
}

func rowParam(r *http.Request) (int, error) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || row < -1 {
		return 0, fmt.Errorf("%w: row must be an index or -1 for the selection", httpx.ErrBadRequest)
	}
	return row, nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
