package postgresql

import (
	"context"
	"database/sql"

	"github.com/railcheck/railcheck/internal/inspectsrv/db/dbmanager"
)

// Session Manager
type sessionManager struct {
	c dbmanager.ScopedConn
}

func (sm *sessionManager) conn() *sql.Conn {
	return sm.c.Conn()
}

func newSessionManager(c dbmanager.ScopedConn) *sessionManager {
	return &sessionManager{c: c}
}

// Answer Manager
type answerManager struct {
	c dbmanager.ScopedConn
}

func (am *answerManager) conn() *sql.Conn {
	return am.c.Conn()
}

func newAnswerManager(c dbmanager.ScopedConn) *answerManager {
	return &answerManager{c: c}
}

// Lookup Manager
type lookupManager struct {
	c dbmanager.ScopedConn
}

func (lm *lookupManager) conn() *sql.Conn {
	return lm.c.Conn()
}

func newLookupManager(c dbmanager.ScopedConn) *lookupManager {
	return &lookupManager{c: c}
}

// Monitoring Manager
type monitoringManager struct {
	c dbmanager.ScopedConn
}

func (qm *monitoringManager) conn() *sql.Conn {
	return qm.c.Conn()
}

func newMonitoringManager(c dbmanager.ScopedConn) *monitoringManager {
	return &monitoringManager{c: c}
}

// Connection Manager
type connectionManager struct {
	c dbmanager.ScopedConn
}

func newConnectionManager(c dbmanager.ScopedConn) *connectionManager {
	return &connectionManager{c: c}
}

func (cm *connectionManager) AddScopes(ctx context.Context, scopes map[string]string) error {
	return cm.c.AddScopes(ctx, scopes)
}

func (cm *connectionManager) DropScopes(ctx context.Context, scopes []string) error {
	return cm.c.DropScopes(ctx, scopes)
}

func (cm *connectionManager) AddScope(ctx context.Context, scope, value string) error {
	return cm.c.AddScope(ctx, scope, value)
}

func (cm *connectionManager) DropScope(ctx context.Context, scope string) error {
	return cm.c.DropScope(ctx, scope)
}

func (cm *connectionManager) DropAllScopes(ctx context.Context) error {
	return cm.c.DropAllScopes(ctx)
}

func (cm *connectionManager) Close(ctx context.Context) {
	cm.c.Close(ctx)
}
