package apis

import (
	"github.com/railcheck/railcheck/internal/common/httpx"
)

// ResponseHandlerParam binds one route to its handler.
type ResponseHandlerParam struct {
	Method  string
	Path    string
	Handler httpx.RequestHandler
}
