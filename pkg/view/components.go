package view

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/goliatone/go-admingen/pkg/field"
	"github.com/goliatone/go-admingen/pkg/i18n"
	"github.com/goliatone/go-admingen/pkg/record"
	"github.com/goliatone/go-admingen/pkg/repository"
)

// dataFunc builds template data. Returning false renders nothing.
type dataFunc func(ctx context.Context, in Input) (map[string]any, bool, error)

type templateComponent struct {
	r    *Renderer
	kind field.Kind
	mode Mode
	name string
	data dataFunc
}

func (c templateComponent) Render(ctx context.Context, in Input) (string, error) {
	data, ok, err := c.data(ctx, in)
	if err != nil || !ok {
		return "", err
	}
	return c.r.render(c.kind, c.mode, c.name, data)
}

func (r *Renderer) component(kind field.Kind, mode Mode, name string, data dataFunc) Component {
	return templateComponent{r: r, kind: kind, mode: mode, name: name, data: data}
}

func (r *Renderer) registerDefaults(reg *Registry) error {
	inputs := map[field.Kind]string{
		field.KindString:   "text",
		field.KindNumber:   "number",
		field.KindDate:     "date",
		field.KindDateTime: "datetime-local",
	}
	for kind, inputType := range inputs {
		err := reg.Register(kind, Strategy{
			Edit:  r.component(kind, ModeEdit, "fields/input", inputData(inputType)),
			Index: r.component(kind, ModeIndex, "fields/value", valueData),
			Show:  r.component(kind, ModeShow, "fields/value", valueData),
		})
		if err != nil {
			return err
		}
	}

	strategies := map[field.Kind]Strategy{
		field.KindBlank: {},
		field.KindID: {
			Index: r.component(field.KindID, ModeIndex, "fields/link", memberLinkData),
			Show:  r.component(field.KindID, ModeShow, "fields/value", valueData),
		},
		field.KindText: {
			Edit:  r.component(field.KindText, ModeEdit, "fields/textarea", baseData),
			Index: r.component(field.KindText, ModeIndex, "fields/excerpt", excerptData),
			Show:  r.component(field.KindText, ModeShow, "fields/html", htmlData),
		},
		field.KindBoolean: {
			Edit:  r.component(field.KindBoolean, ModeEdit, "fields/checkbox", checkboxData),
			Index: r.component(field.KindBoolean, ModeIndex, "fields/value", yesNoData),
			Show:  r.component(field.KindBoolean, ModeShow, "fields/value", yesNoData),
		},
		field.KindFile: {
			Edit:  r.component(field.KindFile, ModeEdit, "fields/input", inputData("file")),
			Index: r.component(field.KindFile, ModeIndex, "fields/link", fileLinkData),
			Show:  r.component(field.KindFile, ModeShow, "fields/link", fileLinkData),
		},
		field.KindImage: {
			Edit:  r.component(field.KindImage, ModeEdit, "fields/input", inputData("file")),
			Index: r.component(field.KindImage, ModeIndex, "fields/image", imageData),
			Show:  r.component(field.KindImage, ModeShow, "fields/image", imageData),
		},
		field.KindBelongsTo: {
			Edit:  r.component(field.KindBelongsTo, ModeEdit, "fields/picker_single", singlePickerData),
			Index: r.component(field.KindBelongsTo, ModeIndex, "fields/link", associatedLinkData),
			Show:  r.component(field.KindBelongsTo, ModeShow, "fields/link", associatedLinkData),
		},
	}
	for _, kind := range []field.Kind{field.KindHasMany, field.KindHasAndBelongsToMany} {
		strategies[kind] = Strategy{
			Edit:  r.component(kind, ModeEdit, "fields/picker_multiple", multiPickerData),
			Index: r.component(kind, ModeIndex, "fields/value", countData),
			Show:  r.component(kind, ModeShow, "fields/association_table", r.associationTableData),
		}
	}
	for kind, s := range strategies {
		if err := reg.Register(kind, s); err != nil {
			return err
		}
	}
	return nil
}

func localizer(in Input) i18n.Localizer {
	return in.Field.Repository().Localizer()
}

func ui(in Input, name, fallback string, vars ...i18n.Vars) string {
	return localizer(in).T(repository.UIKey(name), fallback, vars...)
}

// baseData carries what every template may use.
func baseData(ctx context.Context, in Input) (map[string]any, bool, error) {
	value, err := in.Field.Value(ctx, in.Record)
	if err != nil {
		return nil, false, err
	}
	return map[string]any{
		"name":   in.Field.Name(),
		"param":  in.Field.ParamKey(),
		"dom_id": domID(in),
		"label":  in.Field.Label(),
		"hint":   in.Field.Hint(),
		"errors": in.Errors,
		"value":  formatValue(in.Field.Kind(), value),
	}, true, nil
}

func inputData(inputType string) dataFunc {
	return func(ctx context.Context, in Input) (map[string]any, bool, error) {
		data, ok, err := baseData(ctx, in)
		if err != nil || !ok {
			return data, ok, err
		}
		data["type"] = inputType
		if inputType == "file" {
			data["value"] = ""
		}
		return data, true, nil
	}
}

func valueData(ctx context.Context, in Input) (map[string]any, bool, error) {
	return baseData(ctx, in)
}

func yesNoData(ctx context.Context, in Input) (map[string]any, bool, error) {
	data, ok, err := baseData(ctx, in)
	if err != nil || !ok {
		return data, ok, err
	}
	value, _ := in.Field.Value(ctx, in.Record)
	if truthy(value) {
		data["value"] = ui(in, "yes", "Yes")
	} else {
		data["value"] = ui(in, "no", "No")
	}
	return data, true, nil
}

func checkboxData(ctx context.Context, in Input) (map[string]any, bool, error) {
	data, ok, err := baseData(ctx, in)
	if err != nil || !ok {
		return data, ok, err
	}
	value, _ := in.Field.Value(ctx, in.Record)
	data["checked"] = truthy(value)
	return data, true, nil
}

func excerptData(ctx context.Context, in Input) (map[string]any, bool, error) {
	data, ok, err := baseData(ctx, in)
	if err != nil || !ok {
		return data, ok, err
	}
	data["value"] = strings.TrimSpace(stripTags(data["value"].(string)))
	return data, true, nil
}

func htmlData(ctx context.Context, in Input) (map[string]any, bool, error) {
	data, ok, err := baseData(ctx, in)
	if err != nil || !ok {
		return data, ok, err
	}
	data["html"] = sanitize(data["value"].(string))
	return data, true, nil
}

// memberLinkData links the record id to its show page.
func memberLinkData(ctx context.Context, in Input) (map[string]any, bool, error) {
	data, ok, err := baseData(ctx, in)
	if err != nil || !ok {
		return data, ok, err
	}
	id := record.IDOf(in.Record)
	if id == "" {
		return nil, false, nil
	}
	data["href"] = in.Field.Repository().PathFor(repository.RouteShow, map[string]string{"id": id})
	data["text"] = data["value"]
	return data, true, nil
}

func fileLinkData(ctx context.Context, in Input) (map[string]any, bool, error) {
	data, ok, err := baseData(ctx, in)
	if err != nil || !ok {
		return data, ok, err
	}
	href := data["value"].(string)
	if href == "" {
		return nil, false, nil
	}
	data["href"] = href
	data["text"] = path.Base(href)
	return data, true, nil
}

func imageData(ctx context.Context, in Input) (map[string]any, bool, error) {
	data, ok, err := baseData(ctx, in)
	if err != nil || !ok || data["value"] == "" {
		return nil, false, err
	}
	data["src"] = data["value"]
	return data, true, nil
}

// associatedLinkData renders a belongs-to value as a link to the associated
// record. Nothing is rendered while the value is unset.
func associatedLinkData(ctx context.Context, in Input) (map[string]any, bool, error) {
	target, err := in.Field.AssociatedRecord(ctx, in.Record)
	if err != nil || target == nil {
		return nil, false, err
	}
	data, _, err := baseData(ctx, Input{Field: in.Field})
	if err != nil {
		return nil, false, err
	}
	data["text"] = in.Field.LabelFor(ctx, in.Record, target)
	repo, err := in.Field.AssociatedRepository(ctx, in.Record)
	if err == nil && repo != nil {
		data["href"] = repo.PathFor(repository.RouteShow, map[string]string{"id": record.IDOf(target)})
	}
	return data, true, nil
}

func countData(ctx context.Context, in Input) (map[string]any, bool, error) {
	records, err := in.Field.AssociatedRecords(ctx, in.Record)
	if err != nil {
		return nil, false, err
	}
	data, _, err := baseData(ctx, Input{Field: in.Field, Errors: in.Errors})
	if err != nil {
		return nil, false, err
	}
	data["value"] = len(records)
	return data, true, nil
}

// pickerURL is the picker endpoint of the field, carrying the owner model,
// the field name, and the record id when the form edits an existing record.
func pickerURL(in Input) string {
	owner := in.Field.Repository()
	params := url.Values{}
	params.Set("model", owner.ID())
	params.Set("field", in.Field.Name())
	if id := record.IDOf(in.Record); id != "" {
		params.Set("record_id", id)
	}
	return owner.Routes().PickerPath(in.Field.Field().Many()) + "?" + params.Encode()
}

func pickerData(in Input) map[string]any {
	return map[string]any{
		"name":        in.Field.Name(),
		"param":       in.Field.ParamKey(),
		"dom_id":      domID(in),
		"label":       in.Field.Label(),
		"hint":        in.Field.Hint(),
		"errors":      in.Errors,
		"url":         pickerURL(in),
		"placeholder": ui(in, "select_placeholder", "Select items..."),
	}
}

func singlePickerData(ctx context.Context, in Input) (map[string]any, bool, error) {
	data := pickerData(in)
	target, err := in.Field.AssociatedRecord(ctx, in.Record)
	if err != nil {
		return nil, false, err
	}
	data["selected_id"] = record.IDOf(target)
	data["display"] = in.Field.LabelFor(ctx, in.Record, target)
	return data, true, nil
}

func multiPickerData(ctx context.Context, in Input) (map[string]any, bool, error) {
	data := pickerData(in)
	targets, err := in.Field.AssociatedRecords(ctx, in.Record)
	if err != nil {
		return nil, false, err
	}
	selected := make([]any, 0, len(targets))
	labels := make([]string, 0, len(targets))
	for _, target := range targets {
		label := in.Field.LabelFor(ctx, in.Record, target)
		labels = append(labels, label)
		selected = append(selected, map[string]any{"id": record.IDOf(target), "label": label})
	}
	data["selected"] = selected
	data["display"] = strings.Join(labels, ", ")
	return data, true, nil
}

// associationTableData lists the associated records with the target's index
// columns, minus the column pointing back at the owner.
func (r *Renderer) associationTableData(ctx context.Context, in Input) (map[string]any, bool, error) {
	if in.Record == nil {
		return nil, false, nil
	}
	records, err := in.Field.AssociatedRecords(ctx, in.Record)
	if err != nil {
		return nil, false, err
	}
	target, err := in.Field.AssociatedRepository(ctx, in.Record)
	if err != nil || target == nil {
		return nil, false, err
	}

	columns := in.Field.ShowFields(target)
	headers := make([]any, 0, len(columns))
	for _, f := range columns {
		headers = append(headers, target.Label(f))
	}

	rows := make([]any, 0, len(records))
	for _, rec := range records {
		cells := make([]any, 0, len(columns))
		for _, f := range columns {
			html, err := r.Field(ctx, repository.Bound(f, target), rec, field.Index, nil)
			if err != nil {
				return nil, false, err
			}
			cells = append(cells, html)
		}
		rows = append(rows, map[string]any{
			"href":  target.PathFor(repository.RouteShow, map[string]string{"id": record.IDOf(rec)}),
			"title": target.Title(rec),
			"cells": cells,
		})
	}

	data, _, err := baseData(ctx, Input{Field: in.Field})
	if err != nil {
		return nil, false, err
	}
	data["headers"] = headers
	data["rows"] = rows
	data["empty"] = ui(in, "none", "None")
	return data, true, nil
}

func domID(in Input) string {
	return in.Field.Repository().Model().ParamKey() + "_" + in.Field.Name()
}
