// Package keycloak manages per-project identity groups through the Keycloak admin REST API.
package keycloak

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/restapi"
)

// Config locates the admin API. The service account lives in the master realm.
type Config struct {
	BaseURL      string // e.g. http://keycloak:8080/auth
	Realm        string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// TokenURL is the client-credentials endpoint of the master realm.
func (c Config) TokenURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/realms/master/protocol/openid-connect/token"
}

// AdminURL is the admin API root of the managed realm.
func (c Config) AdminURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/admin/realms/" + url.PathEscape(c.Realm)
}

// GroupManager implements ports.GroupManager.
type GroupManager struct {
	api *restapi.Client
	log zerolog.Logger
}

// NewGroupManager returns a GroupManager authenticated with an oauth2 client-credentials token.
func NewGroupManager(ctx context.Context, cfg Config, log zerolog.Logger) *GroupManager {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL(),
	}
	httpClient := cc.Client(ctx)
	httpClient.Timeout = cfg.Timeout
	if httpClient.Timeout == 0 {
		httpClient.Timeout = 10 * time.Second
	}
	return NewGroupManagerWithClient(restapi.New(cfg.AdminURL(), restapi.WithClient(httpClient)), log)
}

// NewGroupManagerWithClient uses api as the admin API root.
func NewGroupManagerWithClient(api *restapi.Client, log zerolog.Logger) *GroupManager {
	return &GroupManager{api: api, log: log}
}

func (m *GroupManager) CreateGroup(ctx context.Context, name string) error {
	_, err := m.api.Do(ctx, http.MethodPost, "groups", map[string]string{"name": name}, nil)
	if err != nil {
		return fmt.Errorf("create group %q: %w", name, err)
	}
	return nil
}

func (m *GroupManager) RenameGroup(ctx context.Context, currentName, newName string) error {
	id, err := m.FindGroupIDByName(ctx, currentName)
	if err != nil {
		return err
	}
	if _, err := m.api.Do(ctx, http.MethodPut, "groups/"+url.PathEscape(id), map[string]string{"name": newName}, nil); err != nil {
		return fmt.Errorf("rename group %q to %q: %w", currentName, newName, err)
	}
	return nil
}

// DeleteGroup succeeds when the group is already gone.
func (m *GroupManager) DeleteGroup(ctx context.Context, name string) error {
	id, err := m.FindGroupIDByName(ctx, name)
	if errors.Is(err, domerrors.ErrGroupNotFound) {
		m.log.Debug().Str("group", name).Msg("identity group already absent")
		return nil
	}
	if err != nil {
		return err
	}
	_, err = m.api.Do(ctx, http.MethodDelete, "groups/"+url.PathEscape(id), nil, nil)
	if restapi.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete group %q: %w", name, err)
	}
	return nil
}

// searchPageSize is the max requested per search page; Keycloak caps unpaged searches at 100.
const searchPageSize = 100

// FindGroupIDByName returns the id of the top-level group called name.
// Servers that ignore exact=true answer with substring matches, so results are paged
// until the exact name turns up.
func (m *GroupManager) FindGroupIDByName(ctx context.Context, name string) (string, error) {
	id, err := m.searchPages(ctx, "groups", url.Values{"search": {name}}, func(g gjson.Result) bool {
		return g.Get("name").String() == name
	})
	if err != nil {
		return "", fmt.Errorf("search group %q: %w", name, err)
	}
	if id == "" {
		return "", fmt.Errorf("group %q: %w", name, domerrors.ErrGroupNotFound)
	}
	return id, nil
}

// FindUserIDByUsername maps a platform login onto a Keycloak user id.
// Keycloak stores usernames lower-cased.
func (m *GroupManager) FindUserIDByUsername(ctx context.Context, username string) (string, error) {
	id, err := m.searchPages(ctx, "users", url.Values{"username": {username}}, func(u gjson.Result) bool {
		return strings.EqualFold(u.Get("username").String(), username)
	})
	if err != nil {
		return "", fmt.Errorf("search user %q: %w", username, err)
	}
	if id == "" {
		return "", fmt.Errorf("user %q: %w", username, domerrors.ErrUserNotFound)
	}
	return id, nil
}

// searchPages walks the result pages of an exact search on resource and returns the id
// of the first entry accepted by match, or "" when none is.
func (m *GroupManager) searchPages(ctx context.Context, resource string, q url.Values, match func(gjson.Result) bool) (string, error) {
	q.Set("exact", "true")
	q.Set("max", strconv.Itoa(searchPageSize))
	for first := 0; ; first += searchPageSize {
		q.Set("first", strconv.Itoa(first))
		body, err := m.api.Do(ctx, http.MethodGet, resource+"?"+q.Encode(), nil, nil)
		if err != nil {
			return "", err
		}
		var id string
		page := gjson.ParseBytes(body).Array()
		for _, r := range page {
			if match(r) {
				id = r.Get("id").String()
				break
			}
		}
		if id != "" || len(page) < searchPageSize {
			return id, nil
		}
	}
}

func (m *GroupManager) AddUserToGroup(ctx context.Context, userID, groupID string) error {
	if _, err := m.api.Do(ctx, http.MethodPut, membershipPath(userID, groupID), nil, nil); err != nil {
		return fmt.Errorf("add user %s to group %s: %w", userID, groupID, err)
	}
	return nil
}

func (m *GroupManager) RemoveUserFromGroup(ctx context.Context, userID, groupID string) error {
	if _, err := m.api.Do(ctx, http.MethodDelete, membershipPath(userID, groupID), nil, nil); err != nil {
		return fmt.Errorf("remove user %s from group %s: %w", userID, groupID, err)
	}
	return nil
}

func membershipPath(userID, groupID string) string {
	return "users/" + url.PathEscape(userID) + "/groups/" + url.PathEscape(groupID)
}

var _ ports.GroupManager = (*GroupManager)(nil)
