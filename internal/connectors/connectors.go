// Package connectors holds the static connector registration table. Adding
// a connector means adding its Definition here; nothing is discovered at
// runtime.
package connectors

import (
	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/instrumentation"
	"github.com/gumloop/gumcp/internal/server"
	"github.com/gumloop/gumcp/internal/tools/firestore_tools"
	"github.com/gumloop/gumcp/internal/tools/gmail_tools"
	"github.com/gumloop/gumcp/internal/tools/netsuite_tools"
	"github.com/gumloop/gumcp/internal/tools/peakflo_tools"
	"github.com/gumloop/gumcp/internal/tools/sheets_tools"
	"github.com/gumloop/gumcp/internal/tools/slack_tools"
	"github.com/gumloop/gumcp/internal/tools/tldv_tools"
)

// Definitions returns every connector this binary ships.
func Definitions(cfg factory.Config, metrics *instrumentation.Metrics) []server.Definition {
	return []server.Definition{
		gmail_tools.Definition(cfg, metrics),
		sheets_tools.Definition(cfg, metrics),
		firestore_tools.Definition(cfg, metrics),
		slack_tools.Definition(cfg, metrics),
		tldv_tools.Definition(cfg, metrics),
		peakflo_tools.Definition(cfg, metrics),
		netsuite_tools.Definition(cfg, metrics),
	}
}
