package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"booktracker/docs"
)

// Swagger serves the UI and doc.json, pointing "Try it out" at the host the client used.
// fallbackHost is used when the request carries no Host header.
func Swagger(fallbackHost string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs.SwaggerInfo.Host = docsHost(c.Get(fiber.HeaderHost), fallbackHost)
		docs.SwaggerInfo.Schemes = []string{docsScheme(c.Protocol(), c.Get(fiber.HeaderXForwardedProto))}

		return swagger.HandlerDefault(c)
	}
}

func docsHost(host, fallback string) string {
	if host = strings.TrimSpace(host); host != "" {
		return host
	}
	return fallback
}

// docsScheme prefers the first X-Forwarded-Proto value set by a proxy.
func docsScheme(protocol, forwarded string) string {
	if forwarded == "" {
		return protocol
	}
	return strings.TrimSpace(strings.Split(forwarded, ",")[0])
}
