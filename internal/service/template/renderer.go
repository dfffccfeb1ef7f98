package template

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/listguard/internal/pkg/logger"
)

// Renderer compiles and renders Liquid templates, caching parsed templates
// by key.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewRenderer creates a renderer with the custom filters registered.
func NewRenderer() *Renderer {
	r := &Renderer{engine: liquid.NewEngine()}
	r.registerFilters()
	return r
}

func (r *Renderer) registerFilters() {
	// {{ name | default: "there" }}
	r.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		if s := fmt.Sprintf("%v", value); s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})
	r.engine.RegisterFilter("capitalize", func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	})
	r.engine.RegisterFilter("urlencode", func(s string) string {
		return url.QueryEscape(s)
	})
}

// Parse reports template syntax errors.
func (r *Renderer) Parse(src string) error {
	if _, err := r.engine.ParseString(src); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Render renders src with vars. A non-empty cacheKey reuses the parsed
// template across calls; callers must change the key when src changes.
func (r *Renderer) Render(cacheKey, src string, vars map[string]interface{}) (string, error) {
	if cacheKey != "" {
		if cached, ok := r.cache.Load(cacheKey); ok {
			return cached.(*liquid.Template).RenderString(vars)
		}
	}
	tpl, err := r.engine.ParseString(src)
	if err != nil {
		logger.Warn("template parse failed", "cache_key", cacheKey, "error", err)
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if cacheKey != "" {
		r.cache.Store(cacheKey, tpl)
	}
	out, err := tpl.RenderString(vars)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

// Forget drops a cached template.
func (r *Renderer) Forget(cacheKey string) {
	r.cache.Delete(cacheKey)
}

var varPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.]*?)(?:\s*\||\s*\}\})`)

// MissingVariables lists placeholders in src with no value in vars.
func MissingVariables(src string, vars map[string]interface{}) []string {
	seen := map[string]bool{}
	var missing []string
	for _, m := range varPattern.FindAllStringSubmatch(src, -1) {
		name := strings.TrimSpace(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		root := strings.SplitN(name, ".", 2)[0]
		if _, ok := vars[root]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
