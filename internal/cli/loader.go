package cli

import (
	"github.com/roach88/irbind/internal/registry"
)

// buildRegistry assembles a registry from the global flags. Entries from
// --ir-path come first so they win over config and environment entries.
func buildRegistry(opts *RootOptions) (*registry.Registry, error) {
	var ropts []registry.Option
	if len(opts.IRPaths) > 0 {
		ropts = append(ropts, registry.WithSearchPath(opts.IRPaths...))
	}
	if opts.Config != "" {
		ropts = append(ropts, registry.WithConfigFile(opts.Config))
	}
	return registry.New(ropts...)
}
