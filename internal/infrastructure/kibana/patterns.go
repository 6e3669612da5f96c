// Package kibana provisions saved index patterns and the default index of a tenant.
package kibana

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/restapi"
)

const tenantHeader = "sgtenant"

// Provisioner implements ports.IndexPatternProvisioner. The client must send
// kbn-xsrf on every request.
type Provisioner struct {
	api *restapi.Client
	log zerolog.Logger
}

func NewProvisioner(api *restapi.Client, log zerolog.Logger) *Provisioner {
	return &Provisioner{api: api, log: log}
}

// PatternTitle is the saved pattern of one log category of a project.
func PatternTitle(category, projectName string) string {
	return category + "-" + projectName + "-*"
}

type savedObject struct {
	Attributes patternAttributes `json:"attributes"`
}

type patternAttributes struct {
	Title         string `json:"title"`
	TimeFieldName string `json:"timeFieldName"`
}

// ProvisionIndexPatterns creates every category pattern in order. A pattern that
// already exists is skipped; other failures are logged and returned together.
func (p *Provisioner) ProvisionIndexPatterns(ctx context.Context, projectName, tenant string) error {
	var result *multierror.Error
	for _, category := range ports.LogCategories {
		title := PatternTitle(category, projectName)
		body := savedObject{Attributes: patternAttributes{Title: title, TimeFieldName: "@timestamp"}}
		_, err := p.api.Do(ctx, http.MethodPost, "saved_objects/index-pattern/"+url.PathEscape(title), body, tenantScope(tenant))
		switch {
		case err == nil:
			p.log.Debug().Str("pattern", title).Str("tenant", tenant).Msg("created index pattern")
		case errors.Is(err, domerrors.ErrConflict):
			p.log.Debug().Str("pattern", title).Str("tenant", tenant).Msg("index pattern exists")
		default:
			p.log.Error().Err(err).Str("pattern", title).Str("tenant", tenant).Msg("create index pattern failed")
			result = multierror.Append(result, fmt.Errorf("index pattern %s: %w", title, err))
		}
	}
	return result.ErrorOrNil()
}

// EnsureDefaultIndex points the tenant default index at the project's container logs
// unless a default is already set.
func (p *Provisioner) EnsureDefaultIndex(ctx context.Context, projectName, tenant string) error {
	body, err := p.api.Do(ctx, http.MethodGet, "kibana/settings", nil, tenantScope(tenant))
	if err != nil {
		return fmt.Errorf("read tenant settings: %w", err)
	}
	if defaultIndexSet(body) {
		return nil
	}
	changes := map[string]interface{}{
		"changes": map[string]interface{}{
			"defaultIndex":    PatternTitle("container-logs", projectName),
			"telemetry:optIn": false,
		},
	}
	if _, err := p.api.Do(ctx, http.MethodPost, "kibana/settings", changes, tenantScope(tenant)); err != nil {
		return fmt.Errorf("set default index: %w", err)
	}
	p.log.Debug().Str("project", projectName).Str("tenant", tenant).Msg("set default index")
	return nil
}

func tenantScope(tenant string) http.Header {
	h := http.Header{}
	h.Set(tenantHeader, tenant)
	return h
}

var _ ports.IndexPatternProvisioner = (*Provisioner)(nil)

// defaultIndexSet reports whether settings carry a non-empty default index, either
// as a plain value or as the userValue of the setting object.
func defaultIndexSet(settings []byte) bool {
	r := gjson.GetBytes(settings, "settings.defaultIndex")
	if r.IsObject() {
		r = r.Get("userValue")
	}
	return r.Exists() && r.Type != gjson.Null && r.String() != ""
}
