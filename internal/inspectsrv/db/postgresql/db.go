// Description: This file contains the implementation of the railcheckDb interface for the PostgreSQL database.
package postgresql

import (
	"github.com/railcheck/railcheck/internal/inspectsrv/db/dbmanager"
)

type railcheckDb struct {
	sm *sessionManager
	am *answerManager
	lm *lookupManager
	qm *monitoringManager
	cm *connectionManager
}

func NewRailcheckDb(c dbmanager.ScopedConn) (*sessionManager, *answerManager, *lookupManager, *monitoringManager, *connectionManager) {
	h := &railcheckDb{}
	h.sm = newSessionManager(c)
	h.am = newAnswerManager(c)
	h.lm = newLookupManager(c)
	h.qm = newMonitoringManager(c)
	h.cm = newConnectionManager(c)
	return h.sm, h.am, h.lm, h.qm, h.cm
}
