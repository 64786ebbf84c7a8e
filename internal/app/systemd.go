package app

import (
	logx "dagforge/pkg/logx"

	"github.com/coreos/go-systemd/v22/daemon"
)

const (
	sdReady     = daemon.SdNotifyReady
	sdReloading = daemon.SdNotifyReloading
	sdStopping  = daemon.SdNotifyStopping
)

// notifySystemd reports service state when running under Type=notify.
// Outside systemd (no NOTIFY_SOCKET) it is a no-op.
func notifySystemd(log logx.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Debug("systemd notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		log.Debug("systemd notified", logx.String("state", state))
	}
}
