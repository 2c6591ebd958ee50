package notifications

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arjunhg/think-waste/internal/keys"
	"github.com/Arjunhg/think-waste/internal/model"
)

func sample() []model.Notification {
	now := time.Now()
	return []model.Notification{
		{ID: 7, Message: "You've earned 10 points for reporting waste!", Type: model.NotificationTypeReward, CreatedAt: now},
		{ID: 3, Message: "Your report was verified", Type: model.NotificationTypeReport, CreatedAt: now.Add(-time.Hour)},
	}
}

func TestEnterAcknowledgesSelected(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetNotifications(sample(), true)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, AcknowledgeMsg{ID: 3}, cmd())
}

func TestEnterOnEmptyListDoesNothing(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestEmptyStateDependsOnSession(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)

	m.SetNotifications(nil, false)
	assert.Contains(t, m.View(), "Press l to connect your wallet")

	m.SetNotifications(nil, true)
	assert.Contains(t, m.View(), "No unread notifications")
}

func TestViewListsMessages(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 20)
	m.SetNotifications(sample(), true)

	assert.Equal(t, 2, m.Len())
	out := m.View()
	assert.Contains(t, out, "Your report was verified")
	assert.Contains(t, out, "REWARD")
}
