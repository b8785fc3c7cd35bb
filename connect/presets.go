package connect

import (
	"slices"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

type preset struct {
	endpoint    oauth2.Endpoint
	userInfoURL string
	scopes      []string
}

// Well-known providers. A ProviderConfig whose id matches one of these only needs client
// credentials.
var presets = map[string]preset{
	"github": {
		endpoint:    endpoints.GitHub,
		userInfoURL: "https://api.github.com/user",
		scopes:      []string{"read:user", "user:email"},
	},
	"google": {
		endpoint:    endpoints.Google,
		userInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
		scopes:      []string{"openid", "profile", "email"},
	},
	"facebook": {
		endpoint:    endpoints.Facebook,
		userInfoURL: "https://graph.facebook.com/me?fields=id,name,link,picture",
		scopes:      []string{"public_profile"},
	},
}

// KnownProviderIDs returns the ids that have built-in endpoint defaults.
func KnownProviderIDs() []string {
	ids := make([]string, 0, len(presets))
	for id := range presets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// WithDefaults fills empty endpoint fields of a well-known provider and adds its required
// scopes. Other configs are returned unchanged.
func (c ProviderConfig) WithDefaults() ProviderConfig {
	p, ok := presets[c.ID]
	if !ok {
		return c
	}

	if c.AuthURL == "" {
		c.AuthURL = p.endpoint.AuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = p.endpoint.TokenURL
	}
	if c.UserInfoURL == "" {
		c.UserInfoURL = p.userInfoURL
	}

	scopes := slices.Clone(c.Scopes)
	for _, s := range p.scopes {
		if !slices.Contains(scopes, s) {
			scopes = append(scopes, s)
		}
	}
	c.Scopes = scopes

	return c
}
