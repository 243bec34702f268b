//go:build wireinject
// +build wireinject

package workspace

import (
	"github.com/google/wire"
)

// InitializeWorkspace builds the stores and handlers of one browser session
func InitializeWorkspace(id ClientID, deps *Dependencies) *Workspace {
	wire.Build(WorkspaceSet)
	return nil
}
