// Package jobs loads the job postings a run works through.
package jobs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// ID is a job number. The input file may carry it as a string or a number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("job_number must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Job is one posting from the input list. It is read-only once loaded.
type Job struct {
	Number  ID     `json:"job_number"`
	Title   string `json:"job_title"`
	Company string `json:"job_posting_company"`
	URL     string `json:"job_posting_url"`
	Content string `json:"job_posting_content"`
}

// NeedsFetch reports whether the posting text has to be fetched from URL.
func (j Job) NeedsFetch() bool {
	return strings.TrimSpace(j.Content) == "" && strings.TrimSpace(j.URL) != ""
}

// Load reads a JSON array of jobs from path.
func Load(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job list: %w", err)
	}
	return Parse(data)
}

// Validate reports a job that cannot be processed. It only concerns the one
// job, so callers fail that job and carry on with the rest of the list.
func (j Job) Validate() error {
	if strings.TrimSpace(j.Company) == "" {
		return errors.New("job_posting_company is required")
	}
	if strings.TrimSpace(j.Content) == "" && strings.TrimSpace(j.URL) == "" {
		return errors.New("job_posting_content or job_posting_url is required")
	}
	return nil
}

// Parse decodes a JSON array of jobs. Individual jobs are not validated.
func Parse(data []byte) ([]Job, error) {
	var list []Job
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse job list: %w", err)
	}
	return list, nil
}

// Filter keeps the jobs whose number is in numbers, in input order.
// An empty numbers list keeps everything.
func Filter(list []Job, numbers []string) []Job {
	if len(numbers) == 0 {
		return list
	}
	var out []Job
	for _, j := range list {
		if slices.Contains(numbers, string(j.Number)) {
			out = append(out, j)
		}
	}
	return out
}
