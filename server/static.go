package server

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
)

//go:embed public
var publicFS embed.FS

// registerStatic serves the embedded frontend on every route the API
// didn't claim.
func registerStatic(app *fiber.App) {
	sub, err := fs.Sub(publicFS, "public")
	if err != nil {
		// The embed directive guarantees the directory exists
		panic(err)
	}

	app.Get("/*", adaptor.HTTPHandler(http.FileServer(http.FS(sub))))
}
