// Package actions executes bulk actions over a selection of records.
//
// The endpoint accepts POST requests carrying the model, the action key
// (action_name), the selected ids (id or ids[]), and the inputs the action
// declares. Missing ids are dropped before the action runs. The action's
// Response decides how the request finishes: a redirect, a file download, an
// HTML fragment, or a flash message on the model's index page.
package actions
