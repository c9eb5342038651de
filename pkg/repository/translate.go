package repository

import "github.com/goliatone/go-admingen/pkg/model"

// KeyPrefix roots every translation key the admin looks up.
const KeyPrefix = "admingen"

// ModelKey is the key of the model name; count is "one" or "other".
func ModelKey(m model.Model, count string) string {
	return KeyPrefix + ".repository." + m.ParamKey() + ".model." + count
}

// FieldKey is the key of a field's label or hint.
func FieldKey(m model.Model, fieldName, part string) string {
	return KeyPrefix + ".repository." + m.ParamKey() + ".field." + fieldName + "." + part
}

// UIKey is the key of a shared interface string such as a button label.
func UIKey(name string) string {
	return KeyPrefix + ".ui." + name
}
