package conversation

import "github.com/m3rciful/shopbot/core/state"

// Conversation states.
const (
	SelectLanguage state.State = "select_language"
	MainMenu       state.State = "main_menu"
	Categories     state.State = "categories"
	Products       state.State = "products"
	Cart           state.State = "cart"
	About          state.State = "about"
	AdminPanel     state.State = "admin_panel"
	AddCategory    state.State = "add_category"
	AddProduct     state.State = "add_product"
)

// States lists every conversation state.
var States = []state.State{
	SelectLanguage, MainMenu, Categories, Products, Cart, About,
	AdminPanel, AddCategory, AddProduct,
}

var adminStates = map[state.State]bool{
	AdminPanel:  true,
	AddCategory: true,
	AddProduct:  true,
}

// IsAdminState reports whether st is reserved for the administrator.
func IsAdminState(st state.State) bool {
	return adminStates[st]
}
