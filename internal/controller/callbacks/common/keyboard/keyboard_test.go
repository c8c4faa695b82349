package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coderelay_bot/internal/security"
)

func TestAccessRequestRoundTrip(t *testing.T) {
	kb := AccessRequest(4242)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)

	id, ok := security.ParseCallbackID(kb.InlineKeyboard[0][0].CallbackData, callbacktypes.PermApprove)
	assert.True(t, ok)
	assert.Equal(t, int64(4242), id)

	id, ok = security.ParseCallbackID(kb.InlineKeyboard[0][1].CallbackData, callbacktypes.PermDeny)
	assert.True(t, ok)
	assert.Equal(t, int64(4242), id)
}

func TestMainMenuDependsOnRegistration(t *testing.T) {
	guest := MainMenu(false)
	require.Len(t, guest.InlineKeyboard, 2)
	assert.Equal(t, callbacktypes.MenuRegister, guest.InlineKeyboard[0][0].CallbackData)

	member := MainMenu(true)
	require.Len(t, member.InlineKeyboard, 4)
	assert.Equal(t, callbacktypes.MenuGetCode, member.InlineKeyboard[0][0].CallbackData)
}

func TestCallbackDataFitsTelegramLimit(t *testing.T) {
	const maxID int64 = 9223372036854775807
	for _, data := range []string{
		CodeResult(maxID).InlineKeyboard[0][0].CallbackData,
		AccessRequest(maxID).InlineKeyboard[0][1].CallbackData,
	} {
		assert.LessOrEqual(t, len(data), 64, data)
	}
}
