// Package logg holds the structured log field names shared by every layer.
package logg

const (
	Layer      = "layer"
	Operation  = "op"
	URL        = "url"
	Selector   = "selector"
	Action     = "action"
	RunID      = "run_id"
	Coordinate = "coordinate"
	Remark     = "remark"
	Row        = "row"
	Path       = "path"
	Reason     = "reason"
)
