package inscommon

import (
	"context"
)

// ctxKeyType represents the type for all context keys.
type ctxKeyType string

const (
	ctxDepotIdKey     ctxKeyType = "RailcheckDepotId"
	ctxInspectorKey   ctxKeyType = "RailcheckInspector"
	ctxTestContextKey ctxKeyType = "RailcheckTestContext"
)

// InspectorContext carries the identity of the inspector making the request.
// Populated by the adapter layer; this core never issues or validates
// credentials.
type InspectorContext struct {
	InspectorID InspectorId
	Name        string
}

// WithDepotID sets the depot ID in the provided context.
func WithDepotID(ctx context.Context, depotId DepotId) context.Context {
	return context.WithValue(ctx, ctxDepotIdKey, depotId)
}

// GetDepotID retrieves the depot ID from the provided context.
func GetDepotID(ctx context.Context) DepotId {
	if depotId, ok := ctx.Value(ctxDepotIdKey).(DepotId); ok {
		return depotId
	}
	return ""
}

// WithInspector sets the inspector context in the provided context.
func WithInspector(ctx context.Context, ic *InspectorContext) context.Context {
	return context.WithValue(ctx, ctxInspectorKey, ic)
}

// GetInspector retrieves the inspector context, or nil if absent.
func GetInspector(ctx context.Context) *InspectorContext {
	if ic, ok := ctx.Value(ctxInspectorKey).(*InspectorContext); ok {
		return ic
	}
	return nil
}

// GetInspectorID retrieves the inspector ID, or "" if absent.
func GetInspectorID(ctx context.Context) InspectorId {
	if ic := GetInspector(ctx); ic != nil {
		return ic.InspectorID
	}
	return ""
}

// WithTestContext marks the context as belonging to a test run.
func WithTestContext(ctx context.Context, isTest bool) context.Context {
	return context.WithValue(ctx, ctxTestContextKey, isTest)
}

// GetTestContext reports whether the context belongs to a test run.
func GetTestContext(ctx context.Context) bool {
	if isTest, ok := ctx.Value(ctxTestContextKey).(bool); ok {
		return isTest
	}
	return false
}
