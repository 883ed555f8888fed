package store

import (
	"context"

	"github.com/roach88/mica/internal/rewrite"
)

// Recorder adapts a Store to the rewrite.Recorder interface. The run
// header is written lazily on the first application, because the run ID
// is minted by the driver.
type Recorder struct {
	store       *Store
	moduleName  string
	fingerprint string
	pass        string
	headerDone  bool
}

// NewRecorder creates a recorder that files applications under a run
// described by the module's name, fingerprint and pass name.
func NewRecorder(s *Store, moduleName, fingerprint, pass string) *Recorder {
	return &Recorder{store: s, moduleName: moduleName, fingerprint: fingerprint, pass: pass}
}

// RecordApplication implements rewrite.Recorder.
func (r *Recorder) RecordApplication(app rewrite.Application) error {
	ctx := context.Background()
	if !r.headerDone {
		if err := r.store.WriteRun(ctx, Run{
			ID:                app.RunID,
			ModuleName:        r.moduleName,
			ModuleFingerprint: r.fingerprint,
			Pass:              r.pass,
		}); err != nil {
			return err
		}
		r.headerDone = true
	}
	return r.store.WriteApplication(ctx, app)
}
