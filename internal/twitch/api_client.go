package twitch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nicklaw5/helix/v2"

	"github.com/antlu/giveaway-assistant/internal/logger"
)

// helix accepts at most this many ids or logins per users request.
const maxUsersPerRequest = 100

type ApiClient struct {
	*helix.Client
}

type ApiOptions struct {
	ClientID        string
	ClientSecret    string
	UserAccessToken string
	RefreshToken    string
}

// NewApiClient authenticates with the user token when one is given. helix
// refreshes it on expiry when a refresh token and client secret are set.
// Without a user token it falls back to an app access token from the client
// credentials flow.
func NewApiClient(opts ApiOptions, log logger.Logger) (*ApiClient, error) {
	client, err := helix.NewClient(&helix.Options{
		ClientID:        opts.ClientID,
		ClientSecret:    opts.ClientSecret,
		UserAccessToken: opts.UserAccessToken,
		RefreshToken:    opts.RefreshToken,
	})
	if err != nil {
		return nil, err
	}

	client.OnUserAccessTokenRefreshed(func(newAccessToken, newRefreshToken string) {
		log.Infof("Refreshed helix user access token")
	})

	if opts.UserAccessToken == "" {
		resp, err := client.RequestAppAccessToken([]string{})
		if err != nil {
			return nil, fmt.Errorf("error requesting app access token: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("error requesting app access token: %s", resp.ErrorMessage)
		}
		client.SetAppAccessToken(resp.Data.AccessToken)
		log.Infof("Using helix app access token")
	}

	return &ApiClient{client}, nil
}

func (ac ApiClient) getUsers(params *helix.UsersParams) ([]helix.User, error) {
	resp, err := ac.GetUsers(params)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("helix users request failed with %d: %w", resp.StatusCode, errors.New(resp.ErrorMessage))
	}
	return resp.Data.Users, nil
}

// ChannelExists reports whether a broadcaster with this login still exists.
func (ac ApiClient) ChannelExists(login string) (bool, error) {
	users, err := ac.getUsers(&helix.UsersParams{Logins: []string{login}})
	if err != nil {
		return false, err
	}
	return len(users) > 0, nil
}

// DisplayNames maps user ids to their display names. Unknown ids are left out.
func (ac ApiClient) DisplayNames(ids ...string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	for start := 0; start < len(ids); start += maxUsersPerRequest {
		end := min(start+maxUsersPerRequest, len(ids))

		users, err := ac.getUsers(&helix.UsersParams{IDs: ids[start:end]})
		if err != nil {
			return nil, err
		}
		for _, user := range users {
			names[user.ID] = user.DisplayName
		}
	}
	return names, nil
}
