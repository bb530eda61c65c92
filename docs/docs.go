// Package docs embeds the OpenAPI description served under /swagger.
package docs

import _ "embed"

//go:embed swagger.yml
var SwaggerYAML []byte
