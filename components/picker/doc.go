// Package picker serves the candidate lists behind association pickers.
//
// Two endpoints share one handler: the single-select endpoint for belongs-to
// fields and the multi-select endpoint for has-many and
// has-and-belongs-to-many fields. Each request names a registered model, one
// of its association fields, and optionally the record being edited. The
// response lists the target records that pass the field's collection query
// and the search term, flagging the ones already associated. Responses are an
// HTML fragment by default, or JSON with format=json.
package picker
