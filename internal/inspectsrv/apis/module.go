package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railcheck/railcheck/internal/common/httpx"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// ModuleFromRequest resolves the {module} URL parameter to a module kind.
func ModuleFromRequest(r *http.Request) (inscommon.ModuleKind, error) {
	kind, ok := inscommon.ParseModuleKind(chi.URLParam(r, "module"))
	if !ok {
		return "", httpx.ErrInvalidModule()
	}
	return kind, nil
}
