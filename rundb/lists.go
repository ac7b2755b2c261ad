package rundb

import "encoding/json"

// RunList holds the raw run records returned by a listing. Records stay
// unparsed so callers decide how much structure they need.
type RunList []json.RawMessage

// ArtifactList holds the raw artifact records returned by a listing. Tag
// records the tag filter the listing was requested with, even when no
// records came back.
type ArtifactList struct {
	Tag   string
	Items []json.RawMessage
}

// FunctionList holds the raw function records returned by a listing.
type FunctionList []json.RawMessage
