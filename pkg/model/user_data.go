package model

import (
	"encoding/json"
	"slices"
)

const (
	UserDataKeyPrefix = "user_data"

	DefaultMaxRecentRooms  = 10
	DefaultTheme           = "dark"
	DefaultLanguage        = "en"
	DefaultAutoAwayMinutes = 15

	recentlyModifiedWindow = 3600 // seconds
)

// UserData holds the local user's profile and preferences.
type UserData struct {
	ID string `json:"id,omitempty"`

	Username      string  `json:"username"`
	DisplayName   string  `json:"display_name"`
	AvatarURL     *string `json:"avatar_url,omitempty"`
	StatusMessage *string `json:"status_message,omitempty"`

	// RecentRooms is ordered most recent first and capped at MaxRecentRooms.
	RecentRooms    []string `json:"recent_rooms"`
	MaxRecentRooms int      `json:"max_recent_rooms"`

	Theme                string `json:"theme"`
	Language             string `json:"language"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	SoundEnabled         bool   `json:"sound_enabled"`
	AutoAwayMinutes      uint32 `json:"auto_away_minutes"`

	CreatedAt   int64 `json:"created_at"`
	LastUpdated int64 `json:"last_updated"`
}

// NewUserData returns a profile with default preferences.
func NewUserData(username, displayName string) *UserData {
	ts := now()
	return &UserData{
		Username:             username,
		DisplayName:          displayName,
		RecentRooms:          []string{},
		MaxRecentRooms:       DefaultMaxRecentRooms,
		Theme:                DefaultTheme,
		Language:             DefaultLanguage,
		NotificationsEnabled: true,
		SoundEnabled:         true,
		AutoAwayMinutes:      DefaultAutoAwayMinutes,
		CreatedAt:            ts,
		LastUpdated:          ts,
	}
}

// DefaultUserData uses the username as display name.
func DefaultUserData(username string) *UserData {
	return NewUserData(username, username)
}

func (u *UserData) EntityID() string  { return u.ID }
func (u *UserData) KeyPrefix() string { return UserDataKeyPrefix }

func (u *UserData) SetEntityID(id string) {
	if u.ID == "" {
		u.ID = id
	}
}

func (u *UserData) touch() {
	u.LastUpdated = now()
}

func (u *UserData) SetDisplayName(name string) {
	u.DisplayName = name
	u.touch()
}

func (u *UserData) SetAvatarURL(url *string) {
	u.AvatarURL = url
	u.touch()
}

func (u *UserData) SetStatusMessage(msg *string) {
	u.StatusMessage = msg
	u.touch()
}

func (u *UserData) SetTheme(theme string) {
	u.Theme = theme
	u.touch()
}

func (u *UserData) SetLanguage(lang string) {
	u.Language = lang
	u.touch()
}

func (u *UserData) SetNotificationsEnabled(enabled bool) {
	u.NotificationsEnabled = enabled
	u.touch()
}

func (u *UserData) SetSoundEnabled(enabled bool) {
	u.SoundEnabled = enabled
	u.touch()
}

func (u *UserData) SetAutoAwayMinutes(minutes uint32) {
	u.AutoAwayMinutes = minutes
	u.touch()
}

// AddRecentRoom moves roomID to the front, dropping the oldest entries
// beyond MaxRecentRooms.
func (u *UserData) AddRecentRoom(roomID string) {
	if i := slices.Index(u.RecentRooms, roomID); i >= 0 {
		u.RecentRooms = slices.Delete(u.RecentRooms, i, i+1)
	}
	u.RecentRooms = slices.Insert(u.RecentRooms, 0, roomID)
	u.trimRecentRooms()
	u.touch()
}

func (u *UserData) RemoveRecentRoom(roomID string) {
	if i := slices.Index(u.RecentRooms, roomID); i >= 0 {
		u.RecentRooms = slices.Delete(u.RecentRooms, i, i+1)
		u.touch()
	}
}

func (u *UserData) ClearRecentRooms() {
	u.RecentRooms = []string{}
	u.touch()
}

func (u *UserData) SetMaxRecentRooms(max int) {
	u.MaxRecentRooms = max
	u.trimRecentRooms()
	u.touch()
}

func (u *UserData) trimRecentRooms() {
	if u.MaxRecentRooms >= 0 && len(u.RecentRooms) > u.MaxRecentRooms {
		u.RecentRooms = u.RecentRooms[:u.MaxRecentRooms]
	}
}

func (u *UserData) IsRecentRoom(roomID string) bool {
	return slices.Contains(u.RecentRooms, roomID)
}

// MostRecentRoom returns the front of the recent list.
func (u *UserData) MostRecentRoom() (string, bool) {
	if len(u.RecentRooms) == 0 {
		return "", false
	}
	return u.RecentRooms[0], true
}

// EffectiveDisplayName falls back to the username.
func (u *UserData) EffectiveDisplayName() string {
	if u.DisplayName == "" {
		return u.Username
	}
	return u.DisplayName
}

// IsRecentlyModified reports a change within the last hour.
func (u *UserData) IsRecentlyModified() bool {
	return now()-u.LastUpdated < recentlyModifiedWindow
}

func (u *UserData) AgeSeconds() int64 {
	age := now() - u.CreatedAt
	if age < 0 {
		return 0
	}
	return age
}

func (u *UserData) ToJSON() (string, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func UserDataFromJSON(s string) (*UserData, error) {
	var u UserData
	if err := json.Unmarshal([]byte(s), &u); err != nil {
		return nil, err
	}
	return &u, nil
}
