// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package esclient

import (
	"context"
	"net/http"
)

var (
	securityAuthenticate      = newEndpoint("security.authenticate")
	securityPutUser           = newEndpoint("security.put_user", "refresh")
	securityGetUser           = newEndpoint("security.get_user")
	securityDeleteUser        = newEndpoint("security.delete_user", "refresh")
	securityEnableUser        = newEndpoint("security.enable_user", "refresh")
	securityDisableUser       = newEndpoint("security.disable_user", "refresh")
	securityChangePassword    = newEndpoint("security.change_password", "refresh")
	securityPutRole           = newEndpoint("security.put_role", "refresh")
	securityGetRole           = newEndpoint("security.get_role")
	securityDeleteRole        = newEndpoint("security.delete_role", "refresh")
	securityPutRoleMapping    = newEndpoint("security.put_role_mapping", "refresh")
	securityGetRoleMapping    = newEndpoint("security.get_role_mapping")
	securityDeleteRoleMapping = newEndpoint("security.delete_role_mapping", "refresh")
	securityCreateAPIKey      = newEndpoint("security.create_api_key", "refresh")
	securityGetAPIKey         = newEndpoint("security.get_api_key", "id", "name", "owner", "realm_name", "username")
	securityInvalidateAPIKey  = newEndpoint("security.invalidate_api_key")
	securityGetToken          = newEndpoint("security.get_token")
	securityClearCachedRealms = newEndpoint("security.clear_cached_realms", "usernames")
)

// SecurityClient groups the user, role and API key management endpoints.
type SecurityClient struct {
	namespace
}

// Authenticate returns the user the request is authenticated as.
func (sc *SecurityClient) Authenticate(ctx context.Context, o ...Option) (*Response, error) {
	return sc.perform(ctx, securityAuthenticate, http.MethodGet, sc.path("_authenticate"), nil, o)
}

// PutUser creates or updates a native realm user.
func (sc *SecurityClient) PutUser(ctx context.Context, username string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"username", username}, arg{"body", body}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityPutUser, http.MethodPut, sc.path("user", username), body, o)
}

// GetUser returns users, or all of them when username is empty.
func (sc *SecurityClient) GetUser(ctx context.Context, username []string, o ...Option) (*Response, error) {
	return sc.perform(ctx, securityGetUser, http.MethodGet, sc.path("user", username), nil, o)
}

// DeleteUser deletes a native realm user.
func (sc *SecurityClient) DeleteUser(ctx context.Context, username string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"username", username}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityDeleteUser, http.MethodDelete, sc.path("user", username), nil, o)
}

// EnableUser enables a native realm user.
func (sc *SecurityClient) EnableUser(ctx context.Context, username string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"username", username}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityEnableUser, http.MethodPut, sc.path("user", username, "_enable"), nil, o)
}

// DisableUser disables a native realm user.
func (sc *SecurityClient) DisableUser(ctx context.Context, username string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"username", username}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityDisableUser, http.MethodPut, sc.path("user", username, "_disable"), nil, o)
}

// ChangePassword changes the password of username, or of the
// authenticated user when username is empty.
func (sc *SecurityClient) ChangePassword(ctx context.Context, body any, username string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityChangePassword, http.MethodPut, sc.path("user", username, "_password"), body, o)
}

// PutRole creates or updates a role.
func (sc *SecurityClient) PutRole(ctx context.Context, name string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"name", name}, arg{"body", body}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityPutRole, http.MethodPut, sc.path("role", name), body, o)
}

// GetRole returns roles, or all of them when name is empty.
func (sc *SecurityClient) GetRole(ctx context.Context, name []string, o ...Option) (*Response, error) {
	return sc.perform(ctx, securityGetRole, http.MethodGet, sc.path("role", name), nil, o)
}

// DeleteRole deletes a role.
func (sc *SecurityClient) DeleteRole(ctx context.Context, name string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"name", name}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityDeleteRole, http.MethodDelete, sc.path("role", name), nil, o)
}

// PutRoleMapping creates or updates a role mapping.
func (sc *SecurityClient) PutRoleMapping(ctx context.Context, name string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"name", name}, arg{"body", body}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityPutRoleMapping, http.MethodPut, sc.path("role_mapping", name), body, o)
}

// GetRoleMapping returns role mappings, or all of them when name is empty.
func (sc *SecurityClient) GetRoleMapping(ctx context.Context, name []string, o ...Option) (*Response, error) {
	return sc.perform(ctx, securityGetRoleMapping, http.MethodGet, sc.path("role_mapping", name), nil, o)
}

// DeleteRoleMapping deletes a role mapping.
func (sc *SecurityClient) DeleteRoleMapping(ctx context.Context, name string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"name", name}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityDeleteRoleMapping, http.MethodDelete, sc.path("role_mapping", name), nil, o)
}

// CreateAPIKey creates an API key.
func (sc *SecurityClient) CreateAPIKey(ctx context.Context, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityCreateAPIKey, http.MethodPut, sc.path("api_key"), body, o)
}

// GetAPIKey returns API keys matching the id, name, realm_name or
// username parameters.
func (sc *SecurityClient) GetAPIKey(ctx context.Context, o ...Option) (*Response, error) {
	return sc.perform(ctx, securityGetAPIKey, http.MethodGet, sc.path("api_key"), nil, o)
}

// InvalidateAPIKey invalidates the API keys named in body.
func (sc *SecurityClient) InvalidateAPIKey(ctx context.Context, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityInvalidateAPIKey, http.MethodDelete, sc.path("api_key"), body, o)
}

// GetToken creates an OAuth2 access token.
func (sc *SecurityClient) GetToken(ctx context.Context, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityGetToken, http.MethodPost, sc.path("oauth2", "token"), body, o)
}

// ClearCachedRealms evicts users from the realm caches.
func (sc *SecurityClient) ClearCachedRealms(ctx context.Context, realms []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"realms", realms}); err != nil {
		return nil, err
	}
	return sc.perform(ctx, securityClearCachedRealms, http.MethodPost, sc.path("realm", realms, "_clear_cache"), nil, o)
}
