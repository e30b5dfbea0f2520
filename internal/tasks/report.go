package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// CallReportKeys are the keys every HTTP 202 body is contractually required
// to carry. Servers are known to violate this; the handler downgrades a
// violation to a warning so the run can continue.
var CallReportKeys = []string{"result", "error", "spawned_tasks"}

// TaskRef is a single entry of a call report's spawned_tasks list.
type TaskRef struct {
	Href   string `json:"_href"`
	TaskID string `json:"task_id"`
}

// CallReport is the JSON object returned by a Pulp-2 style HTTP 202
// response, describing the background work spawned by that request.
type CallReport struct {
	Result       json.RawMessage `json:"result"`
	Error        json.RawMessage `json:"error"`
	SpawnedTasks []TaskRef       `json:"spawned_tasks"`
}

// ParseCallReport decodes a 202 response body into a CallReport.
func ParseCallReport(body []byte) (*CallReport, error) {
	var cr CallReport
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("tasks: decode call report: %w", err)
	}
	return &cr, nil
}

// MissingReportKeys returns the required call-report keys absent from the
// body, in CallReportKeys order. An empty slice means the body honors the
// contract.
func MissingReportKeys(body []byte) []string {
	parsed := gjson.ParseBytes(body)
	var missing []string
	for _, key := range CallReportKeys {
		if !parsed.Get(key).Exists() {
			missing = append(missing, key)
		}
	}
	return missing
}
