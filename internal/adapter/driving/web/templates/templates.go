// Package templates holds the templ components that render the web GUI.
// Run `go tool templ generate` after editing a .templ file.
package templates

// BrowserPanelID is the element id htmx swaps on every page action.
const BrowserPanelID = "browser"

// SaveControlID is the element id htmx swaps after a draft edit.
const SaveControlID = "save-control"
