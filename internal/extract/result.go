package extract

// Result is the JSON-ready outcome of one evaluation run.
//
// Errors holds one human-readable entry per failed rule, in rule order. It is
// always non-nil so the encoded form is an empty array rather than null.
type Result struct {
	ConfigName string   `json:"config_name"`
	Data       any      `json:"data"`
	Errors     []string `json:"errors"`
}
