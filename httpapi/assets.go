package httpapi

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"io/fs"
	"net/http"
	"strings"

	"pkt.systems/yukora/schema"
)

//go:embed assets/*
var embeddedAssets embed.FS

var assetsFS fs.FS

func init() {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		assetsFS = embeddedAssets
		return
	}
	assetsFS = sub
}

const (
	baseHrefPlaceholder = "<!-- BASE_HREF -->"
	themePlaceholder    = "UI_THEME"
)

// renderIndex fills the page placeholders for the configured base href and theme.
func renderIndex(baseHref string, theme schema.ThemeName) ([]byte, error) {
	data, err := fs.ReadFile(assetsFS, "index.html")
	if err != nil {
		return nil, err
	}
	data = applyBaseHref(data, baseHref)
	data = applyTheme(data, theme)
	return data, nil
}

func applyBaseHref(data []byte, baseHref string) []byte {
	replacement := ""
	if strings.TrimSpace(baseHref) != "" {
		replacement = fmt.Sprintf(`<base href="%s" />`, html.EscapeString(baseHref))
	}
	return bytes.ReplaceAll(data, []byte(baseHrefPlaceholder), []byte(replacement))
}

func applyTheme(data []byte, theme schema.ThemeName) []byte {
	name, ok := schema.NormalizeThemeName(string(theme))
	if !ok {
		name = schema.DefaultTheme
	}
	return bytes.ReplaceAll(data, []byte(themePlaceholder), []byte(html.EscapeString(string(name))))
}

func assetHandler() http.Handler {
	return http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS)))
}
