package model_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/meeseeks/nuntius/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) model.Key {
	var k model.Key
	copy(k[:], bytes.Repeat([]byte{b}, model.KeySize))
	return k
}

func TestParseKey(t *testing.T) {
	k := key(0xab)

	parsed, err := model.ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)

	_, err = model.ParseKey(strings.Repeat("ab", 31))
	assert.ErrorIs(t, err, model.ErrInvalidKey)

	_, err = model.ParseKey(strings.Repeat("ab", 33))
	assert.ErrorIs(t, err, model.ErrInvalidKey)

	_, err = model.ParseKey("not hex at all")
	assert.ErrorIs(t, err, model.ErrInvalidKey)
}

func TestSortKeys(t *testing.T) {
	keys := []model.Key{key(3), key(1), key(2)}
	model.SortKeys(keys)
	assert.Equal(t, []model.Key{key(1), key(2), key(3)}, keys)
}

func TestContact_Defaults(t *testing.T) {
	c := model.NewContact("Bob", key(1))

	assert.Equal(t, "Bob", c.Name)
	assert.Equal(t, key(1), c.PublicKey)
	assert.Empty(t, c.ID)
	assert.False(t, c.Verified)
	assert.False(t, c.Blocked)
	assert.Nil(t, c.LastSeen)
	assert.NotZero(t, c.CreatedAt)
	assert.Equal(t, model.ContactKeyPrefix, c.KeyPrefix())
}

func TestContact_Setters(t *testing.T) {
	c := model.NewContact("Bob", key(1))
	nick := "bobby"
	email := "bob@example.com"

	c.SetNickname(&nick)
	c.SetEmail(&email)
	c.SetVerified(true)
	c.SetBlocked(true)
	c.UpdateLastSeen()

	assert.Equal(t, "bobby", c.DisplayName())
	assert.Equal(t, &email, c.Email)
	assert.True(t, c.Verified)
	assert.True(t, c.Blocked)
	require.NotNil(t, c.LastSeen)
	assert.GreaterOrEqual(t, *c.LastSeen, c.CreatedAt)

	c.SetNickname(nil)
	assert.Equal(t, "Bob", c.DisplayName())
}

func TestContact_SetEntityIDOnce(t *testing.T) {
	c := model.NewContact("Bob", key(1))
	c.SetEntityID("contact:1")
	c.SetEntityID("contact:2")
	assert.Equal(t, "contact:1", c.EntityID())
}

func TestContact_JSONRoundTrip(t *testing.T) {
	c := model.NewContact("Bob", key(9))
	c.ID = "contact:7"
	nick := "b"
	c.SetNickname(&nick)
	c.UpdateLastSeen()

	js, err := c.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, js, `"public_key":"`+key(9).String()+`"`)
	assert.Contains(t, js, `"id":"contact:7"`)

	back, err := model.ContactFromJSON(js)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestContact_JSONOmitsMissingID(t *testing.T) {
	js, err := model.NewContact("Bob", key(1)).ToJSON()
	require.NoError(t, err)
	assert.NotContains(t, js, `"id"`)
}

func TestContact_FromJSONRejectsShortKey(t *testing.T) {
	_, err := model.ContactFromJSON(`{"name":"x","public_key":"abcd"}`)
	assert.Error(t, err)
}

func TestContactQueries(t *testing.T) {
	alice := *model.NewContact("Alice", key(1))
	bob := *model.NewContact("Bob", key(2))
	bob.SetBlocked(true)
	carol := *model.NewContact("Carol", key(3))
	carol.SetVerified(true)
	all := []model.Contact{alice, bob, carol}

	found, ok := model.FindByPublicKey(all, key(2))
	require.True(t, ok)
	assert.Equal(t, "Bob", found.Name)

	_, ok = model.FindByPublicKey(all, key(4))
	assert.False(t, ok)

	subset := model.FindByPublicKeys(all, map[model.Key]struct{}{key(1): {}, key(3): {}})
	assert.Len(t, subset, 2)

	assert.Len(t, model.FilterNonBlocked(all), 2)
	verified := model.FilterVerified(all)
	require.Len(t, verified, 1)
	assert.Equal(t, "Carol", verified[0].Name)
}

func TestUserData_Defaults(t *testing.T) {
	u := model.NewUserData("alice", "Alice Smith")

	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Alice Smith", u.DisplayName)
	assert.Equal(t, "dark", u.Theme)
	assert.Equal(t, "en", u.Language)
	assert.Equal(t, 10, u.MaxRecentRooms)
	assert.True(t, u.NotificationsEnabled)
	assert.True(t, u.SoundEnabled)
	assert.Equal(t, uint32(15), u.AutoAwayMinutes)
	assert.Empty(t, u.RecentRooms)
	assert.Nil(t, u.AvatarURL)
	assert.Nil(t, u.StatusMessage)
}

func TestUserData_EffectiveDisplayName(t *testing.T) {
	u := model.NewUserData("alice", "")
	assert.Equal(t, "alice", u.EffectiveDisplayName())

	u.SetDisplayName("Alice Smith")
	assert.Equal(t, "Alice Smith", u.EffectiveDisplayName())

	assert.Equal(t, "bob", model.DefaultUserData("bob").EffectiveDisplayName())
}

func TestUserData_RecentRooms(t *testing.T) {
	u := model.NewUserData("test", "Test")

	u.AddRecentRoom("room1")
	u.AddRecentRoom("room2")
	u.AddRecentRoom("room3")
	assert.Equal(t, []string{"room3", "room2", "room1"}, u.RecentRooms)

	u.AddRecentRoom("room1")
	assert.Equal(t, []string{"room1", "room3", "room2"}, u.RecentRooms)

	u.SetMaxRecentRooms(2)
	assert.Equal(t, []string{"room1", "room3"}, u.RecentRooms)
	assert.True(t, u.IsRecentRoom("room1"))
	assert.False(t, u.IsRecentRoom("room2"))

	most, ok := u.MostRecentRoom()
	require.True(t, ok)
	assert.Equal(t, "room1", most)

	u.RemoveRecentRoom("room1")
	most, _ = u.MostRecentRoom()
	assert.Equal(t, "room3", most)

	u.ClearRecentRooms()
	_, ok = u.MostRecentRoom()
	assert.False(t, ok)
}

func TestUserData_ClearRecentRoomsSerializesEmptyList(t *testing.T) {
	u := &model.UserData{Username: "loaded"}
	require.Nil(t, u.RecentRooms)

	u.ClearRecentRooms()
	s, err := u.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, s, `"recent_rooms":[]`)
}

func TestUserData_SettersTouchTimestamp(t *testing.T) {
	u := model.NewUserData("test", "Test")

	u.LastUpdated = 1_000_000_000
	u.SetTheme("light")
	assert.Greater(t, u.LastUpdated, int64(1_000_000_000))
	assert.Equal(t, "light", u.Theme)

	u.LastUpdated = 1_000_000_000
	url := "https://example.com/avatar.jpg"
	u.SetAvatarURL(&url)
	assert.Greater(t, u.LastUpdated, int64(1_000_000_000))

	u.SetLanguage("fr")
	u.SetNotificationsEnabled(false)
	u.SetSoundEnabled(false)
	u.SetAutoAwayMinutes(60)
	assert.Equal(t, "fr", u.Language)
	assert.False(t, u.NotificationsEnabled)
	assert.False(t, u.SoundEnabled)
	assert.Equal(t, uint32(60), u.AutoAwayMinutes)
}

func TestUserData_Age(t *testing.T) {
	u := model.NewUserData("test", "Test")
	assert.Less(t, u.AgeSeconds(), int64(5))
	assert.True(t, u.IsRecentlyModified())

	u.LastUpdated -= 7200
	assert.False(t, u.IsRecentlyModified())
}

func TestUserData_JSONRoundTrip(t *testing.T) {
	u := model.NewUserData("test_user", "Test User")
	status := "Working from home"
	u.SetStatusMessage(&status)
	u.AddRecentRoom("room:1")

	js, err := u.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, js, "Working from home")

	back, err := model.UserDataFromJSON(js)
	require.NoError(t, err)
	assert.Equal(t, u, back)
}
