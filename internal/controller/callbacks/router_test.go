package callbacks

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/coderelay_bot/internal/model"
)

func TestClassify(t *testing.T) {
	cases := map[string]route{
		"perm_approve:2002":             routeApprove,
		"perm_approve:":                 routeApprove,
		"perm_deny:2002":                routeDeny,
		callbacktypes.UnregisterConfirm: routeUnregisterConfirm,
		callbacktypes.UnregisterCancel:  routeUnregisterCancel,
		"get_code:1001":                 routeGetCodeAgain,
		callbacktypes.MenuMain:          routeMenu,
		callbacktypes.MenuRequestAccess: routeMenu,
		callbacktypes.MenuTestCode:      routeMenu,
		"":                              routeUnknown,
		"unreg_confirm_extra":           routeUnknown,
		"perm_approv:1":                 routeUnknown,
		"book_slot:17":                  routeUnknown,
	}

	for data, want := range cases {
		assert.Equal(t, want, classify(data), data)
	}
}

func TestDecisionFor(t *testing.T) {
	assert.Equal(t, model.Approve, decisionFor(callbacktypes.PermApprove))
	assert.Equal(t, model.Deny, decisionFor(callbacktypes.PermDeny))
}

func TestKeyboardButtonsAreRoutable(t *testing.T) {
	markups := []*models.InlineKeyboardMarkup{
		keyboard.MainMenu(false),
		keyboard.MainMenu(true),
		keyboard.AccessRequest(2002),
		keyboard.UnregisterConfirm(),
		keyboard.CodeResult(1001),
	}

	for _, kb := range markups {
		for _, row := range kb.InlineKeyboard {
			for _, btn := range row {
				assert.NotEqual(t, routeUnknown, classify(btn.CallbackData), btn.CallbackData)
			}
		}
	}

	approve := keyboard.AccessRequest(2002).InlineKeyboard[0]
	assert.Equal(t, routeApprove, classify(approve[0].CallbackData))
	assert.Equal(t, routeDeny, classify(approve[1].CallbackData))
}
