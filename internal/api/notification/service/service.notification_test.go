package notifsvc

import (
	"context"
	"testing"

	authmodels "soug_elwahah/internal/api/auth/models"
	basemodels "soug_elwahah/internal/api/base/models"
	notifmodels "soug_elwahah/internal/api/notification/models"
	"soug_elwahah/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memInbox struct {
	items []notifmodels.Notification
}

func (m *memInbox) ListForUser(_ context.Context, userID primitive.ObjectID, unreadOnly bool, page, limit int64) (*basemodels.PaginateResult[notifmodels.Notification], error) {
	var out []notifmodels.Notification
	for _, n := range m.items {
		if n.RecipientID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return basemodels.Paginate(out, page, limit), nil
}

func (m *memInbox) MarkRead(_ context.Context, id, userID primitive.ObjectID, readAt int64) (*notifmodels.Notification, error) {
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].RecipientID == userID {
			m.items[i].IsRead = true
			m.items[i].ReadAt = &readAt
			n := m.items[i]
			return &n, nil
		}
	}
	return nil, common.ErrNotFound
}

type memPrefs struct {
	data map[primitive.ObjectID]notifmodels.Preference
}

func (m *memPrefs) GetPreference(_ context.Context, userID primitive.ObjectID) (*notifmodels.Preference, error) {
	if p, ok := m.data[userID]; ok {
		return &p, nil
	}
	return &notifmodels.Preference{UserID: userID}, nil
}

func (m *memPrefs) SavePreference(_ context.Context, p *notifmodels.Preference) (*notifmodels.Preference, error) {
	m.data[p.UserID] = *p
	return p, nil
}

func TestNotificationService_InboxIsPrivate(t *testing.T) {
	me := authmodels.Actor{UserID: primitive.NewObjectID(), Roles: authmodels.NewRoleSet(authmodels.RoleCustomer), ActiveRole: authmodels.RoleCustomer}
	other := primitive.NewObjectID()
	mine := primitive.NewObjectID()
	theirs := primitive.NewObjectID()
	inbox := &memInbox{items: []notifmodels.Notification{
		{ID: mine, RecipientID: me.UserID, Title: "a"},
		{ID: theirs, RecipientID: other, Title: "b"},
	}}
	svc := NewNotificationService(inbox, &memPrefs{data: map[primitive.ObjectID]notifmodels.Preference{}})
	ctx := context.Background()

	res, err := svc.List(ctx, me, false, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	_, err = svc.MarkRead(ctx, me, theirs)
	assert.ErrorIs(t, err, common.ErrNotFound)

	n, err := svc.MarkRead(ctx, me, mine)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	res, err = svc.List(ctx, me, true, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)
}

func TestNotificationService_Preferences(t *testing.T) {
	me := authmodels.Actor{UserID: primitive.NewObjectID(), Roles: authmodels.NewRoleSet(authmodels.RoleDriver), ActiveRole: authmodels.RoleDriver}
	svc := NewNotificationService(&memInbox{}, &memPrefs{data: map[primitive.ObjectID]notifmodels.Preference{}})
	ctx := context.Background()

	pref, err := svc.Preferences(ctx, me)
	require.NoError(t, err)
	assert.False(t, pref.EmailEnabled)

	_, err = svc.UpdatePreferences(ctx, me, PreferenceInput{EmailEnabled: true})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	pref, err = svc.UpdatePreferences(ctx, me, PreferenceInput{Email: "d@example.com", EmailEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, me.UserID, pref.UserID)

	pref, err = svc.Preferences(ctx, me)
	require.NoError(t, err)
	assert.True(t, pref.EmailEnabled)
	assert.Equal(t, "d@example.com", pref.Email)
}
