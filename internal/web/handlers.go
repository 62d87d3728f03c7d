package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/pomo/internal/errors"
	"github.com/hpungsan/pomo/internal/ops"
	"github.com/hpungsan/pomo/internal/settings"
	"github.com/hpungsan/pomo/internal/timer"
)

// recentEntries is how many completions the timer page lists.
const recentEntries = 5

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	rt       *ops.Runtime
	renderer *Renderer
}

// HandleStatus handles GET /: the timer page.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	data, err := h.statusData(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderer.renderPage(w, r, "status", data)
}

// HandleHistory handles GET /history: completed phases, newest first.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	input := ops.HistoryInput{
		Phase:  r.URL.Query().Get("phase"),
		Today:  parseBoolParam(r, "today"),
		Limit:  parseIntParam(r, "limit", 0),
		Offset: parseIntParam(r, "offset", 0),
	}

	result, err := ops.History(r.Context(), h.rt, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "history", HistoryPageData{
		PageData: PageData{
			Title:   "History",
			Version: h.renderer.version,
			Nav:     "history",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		Phase:      input.Phase,
		Today:      input.Today,
	})
}

// HandleReport handles GET /report: today's summary rendered from markdown.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Report(r.Context(), h.rt)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "report", ReportPageData{
		PageData: PageData{
			Title:   "Report " + result.Day,
			Version: h.renderer.version,
			Nav:     "report",
		},
		Report:       result,
		RenderedHTML: renderMarkdown(result.Markdown),
	})
}

// HandleTimerJSON handles GET /api/timer.
func (h *Handlers) HandleTimerJSON(w http.ResponseWriter, r *http.Request) {
	view, err := ops.Status(r.Context(), h.rt)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, view)
}

// HandleStart handles POST /api/timer/start.
func (h *Handlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func() (any, error) {
		return ops.Start(r.Context(), h.rt)
	})
}

// HandlePause handles POST /api/timer/pause.
func (h *Handlers) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func() (any, error) {
		return ops.Pause(r.Context(), h.rt)
	})
}

// HandleReset handles POST /api/timer/reset. all=true starts a fresh cycle.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func() (any, error) {
		return ops.Reset(r.Context(), h.rt, ops.ResetInput{All: parseBoolForm(r, "all")})
	})
}

// HandleCatchup handles POST /api/timer/catchup. force=true applies gaps
// outside the catch-up window.
func (h *Handlers) HandleCatchup(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func() (any, error) {
		return ops.Catchup(r.Context(), h.rt, ops.CatchupInput{Force: parseBoolForm(r, "force")})
	})
}

// HandleSwitch handles POST /api/timer/switch/{phase}.
func (h *Handlers) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func() (any, error) {
		return ops.Switch(r.Context(), h.rt, ops.SwitchInput{Phase: r.PathValue("phase")})
	})
}

// HandleSet handles POST /api/timer/set with either seconds or clock.
func (h *Handlers) HandleSet(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func() (any, error) {
		input := ops.SetInput{Clock: r.FormValue("clock")}
		if s := strings.TrimSpace(r.FormValue("seconds")); s != "" {
			seconds, err := strconv.Atoi(s)
			if err != nil {
				return nil, errors.NewInvalidRequest("seconds must be an integer")
			}
			input.Seconds = &seconds
		}
		return ops.Set(r.Context(), h.rt, input)
	})
}

// HandleSettings handles POST /api/settings. Blank fields keep their value.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func() (any, error) {
		var patch settings.Patch
		fields := []struct {
			name  string
			value **int
		}{
			{"study_seconds", &patch.StudySeconds},
			{"short_break_seconds", &patch.ShortBreakSeconds},
			{"long_break_seconds", &patch.LongBreakSeconds},
			{"long_break_interval", &patch.LongBreakInterval},
		}
		for _, f := range fields {
			s := strings.TrimSpace(r.FormValue(f.name))
			if s == "" {
				continue
			}
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errors.NewInvalidRequest(f.name + " must be an integer")
			}
			*f.value = &v
		}
		return ops.UpdateSettings(r.Context(), h.rt, patch)
	})
}

// respond runs a control and answers in the form the client asked for:
// the timer fragment for htmx, the result for JSON, otherwise a redirect
// back to the timer page.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, action func() (any, error)) {
	result, err := action()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: return the refreshed timer panel
	if r.Header.Get("HX-Request") == "true" {
		data, err := h.statusData(r)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		h.renderer.renderBlock(w, http.StatusOK, "status", "timer-panel", data)
		return
	}

	// JSON request
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) statusData(r *http.Request) (StatusPageData, error) {
	recent, err := ops.History(r.Context(), h.rt, ops.HistoryInput{Limit: recentEntries})
	if err != nil {
		return StatusPageData{}, err
	}
	view := h.rt.View()
	return StatusPageData{
		PageData: PageData{
			Title:   view.Clock + " " + view.PhaseLabel,
			Version: h.renderer.version,
			Nav:     "timer",
		},
		Timer:  view,
		Phases: timer.Phases,
		Recent: recent.Items,
	}, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// parseBoolForm parses a boolean form or query value.
func parseBoolForm(r *http.Request, name string) bool {
	s := r.FormValue(name)
	return s == "true" || s == "1" || s == "on"
}
