package monitor

import (
	"fmt"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"
)

// AttachAdminRoutes mounts the tsweb debugger on mux with a read-only
// tailsql console over the container file and a grid summary page.
// Requires a WebServerConfig.File.
func (ws *WebServer) AttachAdminRoutes(mux *http.ServeMux) error {
	if ws.file == nil {
		return fmt.Errorf("no container file to attach")
	}
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+ws.file.Path(), ws.file.DB(), &tailsql.DBOptions{
		Label: "Volume container",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("grids", "Grid summary", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.writeJSON(w, map[string]interface{}{
			"file":           ws.file.Path(),
			"uuid":           ws.file.UUID(),
			"format_version": ws.file.FormatVersion(),
			"generator":      ws.file.Generator(),
			"created_at":     ws.file.CreatedAt(),
			"grids":          ws.summaries(),
		})
	}))

	diagf("admin routes mounted for %s", ws.file.Path())
	return nil
}
