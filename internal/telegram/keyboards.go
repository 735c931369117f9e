package telegram

import (
	"fmt"

	"github.com/go-telegram/bot/models"
)

// MainKeyboard returns the main menu keyboard
func MainKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "⚡ Buy Energy", CallbackData: "buy"},
				{Text: "🔋 Provide Energy", CallbackData: "provide"},
			},
			{
				{Text: "❓ FAQ", CallbackData: "faq"},
				{Text: "⭐ Our Tools", CallbackData: "tools"},
			},
		},
	}
}

// BuyStartKeyboard returns the address input options for the buy flow
func BuyStartKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🔗 WalletConnect", CallbackData: "wallet_connect"},
			},
			{
				{Text: "⌨️ Enter address", CallbackData: "enter_address"},
			},
			{
				{Text: "⬅️ Back", CallbackData: "back"},
			},
		},
	}
}

// PackagesKeyboard returns a keyboard with one labeled button per package
func PackagesKeyboard(labels []PackageLabel) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton

	for _, pkg := range labels {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: pkg.Label, CallbackData: fmt.Sprintf("pkg:%d", pkg.ID)},
		})
	}

	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "⬅️ Back", CallbackData: "back"},
	})

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// PackageLabel pairs a package ID with its display label
type PackageLabel struct {
	ID    int
	Label string
}

// BackKeyboard returns a simple back button
func BackKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "⬅️ Back", CallbackData: "back"},
			},
		},
	}
}
