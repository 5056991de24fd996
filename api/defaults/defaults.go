package defaults

import (
	"context"
	"time"

	"github.com/daikurogo/ipywidgets/api/models"
	"github.com/daikurogo/ipywidgets/notify"
	"github.com/daikurogo/ipywidgets/tool"
	"github.com/daikurogo/ipywidgets/transfer"
	"github.com/daikurogo/ipywidgets/widget"
)

// RemoteCheckTimeout bounds the startup probe of the remote sync endpoint.
var RemoteCheckTimeout = 3 * time.Second

// DefaultOnCommit is the default callback for a committed batch.
func DefaultOnCommit(b widget.Batch) {
	summary := b.Summary()
	tool.DefaultLogger.Infof("[Upload %s] batch committed: %d files, %d bytes, counter=%d",
		summary.ModelID, summary.FileCount, summary.TotalSize, summary.Counter)
	if err := notify.SendBatchCommitted(tool.GetCurrentConfig().NotifySocket, summary); err != nil {
		tool.DefaultLogger.Debugf("[Notify] upload_committed not delivered: %v", err)
	}
}

// DefaultOnFailure is the default callback for a failed batch.
func DefaultOnFailure(modelID string) func(error) {
	return func(err error) {
		if err := notify.SendBatchFailed(tool.GetCurrentConfig().NotifySocket, modelID, err); err != nil {
			tool.DefaultLogger.Debugf("[Notify] upload_failed not delivered: %v", err)
		}
	}
}

// Install wires the default callbacks, and the remote syncer when one is configured, into ctl.
func Install(ctl *models.Control) {
	ctl.Pipeline.OnCommit(DefaultOnCommit)
	ctl.Pipeline.OnFailure(DefaultOnFailure(ctl.Model.ID()))

	remote := tool.GetCurrentConfig().RemoteSyncURL
	if remote == "" {
		return
	}
	syncer := transfer.NewHTTPSyncer(remote)
	ctx, cancel := context.WithTimeout(context.Background(), RemoteCheckTimeout)
	defer cancel()
	if err := syncer.CheckRemote(ctx); err != nil {
		tool.DefaultLogger.Warnf("[Sync] %v; frames will still be pushed", err)
	}
	ctl.Model.AddSyncer(syncer)
}
