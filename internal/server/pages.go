package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/action"
	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/field"
	"github.com/goliatone/go-admingen/pkg/i18n"
	"github.com/goliatone/go-admingen/pkg/query"
	"github.com/goliatone/go-admingen/pkg/record"
	"github.com/goliatone/go-admingen/pkg/repository"
	"github.com/goliatone/go-admingen/pkg/view"
)

// Index query parameters.
const (
	SearchParam    = "search"
	PageParam      = "page"
	ScopeModel     = "scope[model]"
	ScopeID        = "scope[id]"
	ScopeField     = "scope[field]"
	ScopeInverseOf = "scope[inverse_of]"
)

func ui(l i18n.Localizer, name, fallback string, vars ...i18n.Vars) string {
	return l.T(repository.UIKey(name), fallback, vars...)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "dashboard", map[string]any{
		"title": ui(s.localizer(r), "dashboard", "Dashboard"),
	})
}

// scoped narrows an index to the records associated with one parent.
type scoped struct {
	owner  *repository.Repository
	record record.Record
	field  repository.BoundField
	query  query.Query
}

func (s *Server) scope(ctx context.Context, reg *repository.Registry, target *repository.Repository, params url.Values) (*scoped, error) {
	modelID := strings.TrimSpace(params.Get(ScopeModel))
	if modelID == "" {
		return nil, nil
	}
	owner, err := reg.Lookup(modelID)
	if err != nil {
		return nil, err
	}
	bound, err := owner.Bind(strings.TrimSpace(params.Get(ScopeField)))
	if err != nil {
		return nil, err
	}
	assoc, err := bound.Association()
	if err != nil {
		return nil, err
	}
	if assoc.Polymorphic || assoc.Target != target.ID() {
		return nil, adminerr.ConfigurationError{
			Subject: owner.ID() + "." + bound.Name(),
			Msg:     "does not list " + target.ID() + " records",
		}
	}
	rec, err := owner.Find(ctx, strings.TrimSpace(params.Get(ScopeID)))
	if err != nil {
		return nil, err
	}
	q, err := bound.Scope(target, rec)
	if err != nil {
		return nil, err
	}
	return &scoped{owner: owner, record: rec, field: bound, query: q}, nil
}

func (s *Server) index(modelID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		reg := s.registryFor(r)
		repo, err := reg.For(modelID)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		l := repo.Localizer()
		params := r.URL.Query()

		opts := repository.FindAllOptions{Search: strings.TrimSpace(params.Get(SearchParam))}
		current := repo.DefaultSort()
		if order, ok := query.SortOrderFromParams(params); ok {
			opts.Sort = &order
			current = order
		}

		columns := repo.FieldsFor(field.Index)
		sc, err := s.scope(ctx, reg, repo, params)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		if sc != nil {
			opts.Scope = &sc.query
			columns = sc.field.ShowFields(repo)
		}
		if inverse := strings.TrimSpace(params.Get(ScopeInverseOf)); inverse != "" {
			columns = slices.DeleteFunc(columns, func(f field.Field) bool {
				return f.Name() == inverse || f.Association() == inverse
			})
		}

		number, _ := strconv.Atoi(params.Get(PageParam))
		page, err := repo.Paginate(ctx, repo.FindAll(opts), number, s.opts.PerPage)
		if err != nil {
			s.renderError(w, r, err)
			return
		}

		base := repo.PathFor(repository.RouteIndex, nil)
		headers := make([]any, 0, len(columns))
		for _, f := range columns {
			header := map[string]any{"label": repo.Label(f)}
			if f.Sortable() {
				header["href"] = link(base, params, current.Toggled(f.Name()).Params(), PageParam)
				if current.Name() == f.Name() {
					header["direction"] = string(current.Direction())
				}
			}
			headers = append(headers, header)
		}

		rows := make([]any, 0, len(page.Records))
		for _, rec := range page.Records {
			cells := make([]any, 0, len(columns))
			for _, f := range columns {
				html, err := s.renderer.Field(ctx, repository.Bound(f, repo), rec, field.Index, nil)
				if err != nil {
					s.renderError(w, r, err)
					return
				}
				cells = append(cells, html)
			}
			id := record.IDOf(rec)
			member := repo.PathFor(repository.RouteShow, map[string]string{"id": id})
			rows = append(rows, map[string]any{
				"id":     id,
				"title":  repo.Title(rec),
				"cells":  cells,
				"show":   member,
				"edit":   repo.PathFor(repository.RouteEdit, map[string]string{"id": id}),
				"delete": member + "/delete",
			})
		}

		data := map[string]any{
			"title":       repo.PluralName(),
			"model":       repo.SingularName(),
			"new_path":    repo.PathFor(repository.RouteNew, nil),
			"search_path": base,
			"search":      opts.Search,
			"hidden":      hiddenParams(params, SearchParam, PageParam),
			"headers":     headers,
			"rows":        rows,
			"empty":       ui(l, "no_records", "No records found."),
			"page_label":  ui(l, "page", "Page %{page} of %{pages}", i18n.Vars{"page": page.Number, "pages": page.Pages()}),
			"actions":     actionList(repo),
		}
		if page.HasPrev() {
			data["prev"] = link(base, params, url.Values{PageParam: {strconv.Itoa(page.Number - 1)}})
		}
		if page.HasNext() {
			data["next"] = link(base, params, url.Values{PageParam: {strconv.Itoa(page.Number + 1)}})
		}
		if sc != nil {
			data["scope"] = map[string]any{
				"label": sc.owner.SingularName() + ": " + sc.owner.Title(sc.record),
				"href":  sc.owner.PathFor(repository.RouteShow, map[string]string{"id": record.IDOf(sc.record)}),
			}
		}
		s.render(w, r, http.StatusOK, "index", data)
	}
}

func actionList(repo *repository.Repository) []any {
	acts := repo.Actions()
	if len(acts) == 0 {
		return nil
	}
	out := make([]any, 0, len(acts))
	for _, a := range acts {
		var inputs []any
		for _, f := range action.FieldsOf(a) {
			inputs = append(inputs, map[string]any{
				"param": f.ParamKey(repo.Model()),
				"label": repo.Label(f),
			})
		}
		out = append(out, map[string]any{
			"key":    a.Key(),
			"name":   action.NameOf(a),
			"inputs": inputs,
			"path":   repo.PathFor(repository.RouteActions, nil),
		})
	}
	return out
}

// link rewrites base with params overlaid by set, dropping the drop keys.
func link(base string, params, set url.Values, drop ...string) string {
	values := url.Values{}
	for key, v := range params {
		if !slices.Contains(drop, key) {
			values[key] = slices.Clone(v)
		}
	}
	for key, v := range set {
		values[key] = v
	}
	if encoded := values.Encode(); encoded != "" {
		return base + "?" + encoded
	}
	return base
}

func hiddenParams(params url.Values, drop ...string) []any {
	var out []any
	for key, values := range params {
		if slices.Contains(drop, key) {
			continue
		}
		for _, v := range values {
			out = append(out, map[string]any{"name": key, "value": v})
		}
	}
	slices.SortFunc(out, func(a, b any) int {
		return strings.Compare(a.(map[string]any)["name"].(string), b.(map[string]any)["name"].(string))
	})
	return out
}

func (s *Server) show(modelID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		repo, rec, err := s.member(r, modelID)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		fields, err := s.renderer.Fields(ctx, repo, rec, field.Show, adminerr.ValidationError{})
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		l := repo.Localizer()
		id := record.IDOf(rec)
		s.render(w, r, http.StatusOK, "show", map[string]any{
			"title":      repo.Title(rec),
			"fields":     renderedFields(fields),
			"index":      repo.PathFor(repository.RouteIndex, nil),
			"edit":       repo.PathFor(repository.RouteEdit, map[string]string{"id": id}),
			"delete":     repo.PathFor(repository.RouteShow, map[string]string{"id": id}) + "/delete",
			"edit_label": ui(l, "edit", "Edit %{model}", i18n.Vars{"model": repo.SingularName()}),
		})
	}
}

func (s *Server) member(r *http.Request, modelID string) (*repository.Repository, record.Record, error) {
	repo, err := s.registryFor(r).For(modelID)
	if err != nil {
		return nil, nil, err
	}
	rec, err := repo.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, err
	}
	return repo, rec, nil
}

func (s *Server) newForm(modelID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, err := s.registryFor(r).For(modelID)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		s.form(w, r, http.StatusOK, repo, nil, field.New, adminerr.ValidationError{})
	}
}

func (s *Server) editForm(modelID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, rec, err := s.member(r, modelID)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		s.form(w, r, http.StatusOK, repo, rec, field.Edit, adminerr.ValidationError{})
	}
}

func (s *Server) form(w http.ResponseWriter, r *http.Request, status int, repo *repository.Repository, rec record.Record, a field.Action, verr adminerr.ValidationError) {
	fields, err := s.renderer.Fields(r.Context(), repo, rec, a, verr)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	l := repo.Localizer()
	vars := i18n.Vars{"model": repo.SingularName()}
	data := map[string]any{
		"fields": renderedFields(fields),
		"base":   verr.Messages("base"),
		"save":   ui(l, "save", "Save"),
		"back":   repo.PathFor(repository.RouteIndex, nil),
	}
	if a == field.New {
		data["title"] = ui(l, "new", "New %{model}", vars)
		data["action"] = repo.PathFor(repository.RouteIndex, nil)
	} else {
		data["title"] = ui(l, "edit", "Edit %{model}", vars)
		data["action"] = repo.PathFor(repository.RouteShow, map[string]string{"id": record.IDOf(rec)})
	}
	s.render(w, r, status, "form", data)
}

func (s *Server) create(modelID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, err := s.registryFor(r).For(modelID)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		if err := parseForm(r); err != nil {
			s.renderError(w, r, err)
			return
		}
		values := repo.Permit(field.New, r.PostForm)
		rec, err := repo.Create(r.Context(), values)
		if verr, ok := adminerr.AsValidation(err); ok {
			draft := record.NewRow(repo.ID(), repo.Model().Key(), values)
			s.form(w, r, http.StatusUnprocessableEntity, repo, draft, field.New, verr)
			return
		}
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		notice(w, r, ui(repo.Localizer(), "created", "%{model} was created.", i18n.Vars{"model": repo.SingularName()}))
		http.Redirect(w, r, repo.PathFor(repository.RouteShow, map[string]string{"id": record.IDOf(rec)}), http.StatusSeeOther)
	}
}

func (s *Server) update(modelID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, current, err := s.member(r, modelID)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		if err := parseForm(r); err != nil {
			s.renderError(w, r, err)
			return
		}
		rec, err := repo.Update(r.Context(), current.ID(), repo.Permit(field.Edit, r.PostForm))
		if verr, ok := adminerr.AsValidation(err); ok {
			s.form(w, r, http.StatusUnprocessableEntity, repo, current, field.Edit, verr)
			return
		}
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		notice(w, r, ui(repo.Localizer(), "updated", "%{model} was updated.", i18n.Vars{"model": repo.SingularName()}))
		http.Redirect(w, r, repo.PathFor(repository.RouteShow, map[string]string{"id": record.IDOf(rec)}), http.StatusSeeOther)
	}
}

func (s *Server) destroy(modelID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, rec, err := s.member(r, modelID)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		if err := repo.Delete(r.Context(), rec.ID()); err != nil {
			s.renderError(w, r, err)
			return
		}
		notice(w, r, ui(repo.Localizer(), "deleted", "%{model} was deleted.", i18n.Vars{"model": repo.SingularName()}))
		http.Redirect(w, r, repo.PathFor(repository.RouteIndex, nil), http.StatusSeeOther)
	}
}

// maxFormMemory bounds multipart form parsing.
const maxFormMemory = 32 << 20

func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return statusError{code: http.StatusBadRequest, err: err}
	}
	return nil
}

func renderedFields(fields []view.Rendered) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		if f.HTML == "" {
			continue
		}
		out = append(out, map[string]any{
			"name":  f.Name,
			"label": f.Label,
			"hint":  f.Hint,
			"group": string(f.Group),
			"html":  f.HTML,
		})
	}
	return out
}

// render executes the page template inside the layout.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	reg := s.registryFor(r)
	nav := make([]any, 0)
	for _, id := range reg.Models() {
		repo, err := reg.For(id)
		if err != nil {
			continue
		}
		nav = append(nav, map[string]any{
			"label": repo.PluralName(),
			"href":  repo.PathFor(repository.RouteIndex, nil),
		})
	}
	data["nav"] = nav
	data["root"] = reg.Routes().Root()
	data["stylesheets"] = s.opts.Stylesheets
	data["css_vars"] = view.CSSVarsStyle(s.renderer.Theme())
	data["request_id"] = RequestID(r.Context())
	if f := takeFlash(w, r); f != nil {
		data["flash"] = map[string]any{"kind": f.Kind, "message": f.Message}
	}

	html, err := s.engine.RenderTemplate("admin/"+name, data)
	if err != nil {
		s.logger.Error("page render failed", zap.String("page", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(html))
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := adminerr.StatusCode(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error("admin request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		message = http.StatusText(status)
	} else if adminerr.IsNotFound(err) {
		s.logger.Debug("admin not found", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.render(w, r, status, "error", map[string]any{
		"title":   http.StatusText(status),
		"status":  status,
		"message": message,
	})
}
