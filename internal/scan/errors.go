package scan

import "fmt"

// Stage names the pipeline step a page failed in.
type Stage string

const (
	StageRasterize Stage = "rasterize"
	StagePrepare   Stage = "prepare"
	StageRecognize Stage = "recognize"
)

// PageError reports which file, page and stage stopped a scan. Page is 0
// when the failure is not tied to one page, such as an unreadable upload.
type PageError struct {
	File  string
	Page  int
	Stage Stage
	Err   error
}

func (e *PageError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s page %d: %s failed: %v", e.File, e.Page, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.File, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }
