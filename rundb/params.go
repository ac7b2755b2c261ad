package rundb

import "net/url"

// boolString renders booleans the way the run database expects them on the
// query string.
func boolString(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// addLabels appends one "label" parameter per filter so the server receives
// the full list rather than a joined string.
func addLabels(params url.Values, labels []string) {
	for _, label := range labels {
		params.Add("label", label)
	}
}
