package conversation

import "strings"

// tokenSep separates the key of a callback token from its arguments.
const tokenSep = "|"

// Callback token keys.
const (
	KeyLang        = "lang"
	KeyAdmin       = "admin"
	KeyProducts    = "products"
	KeyCatalog     = "catalog"
	KeyAbout       = "about"
	KeyMainMenu    = "main_menu"
	KeyCategory    = "cat"
	KeyProduct     = "prod"
	KeyAddToCart   = "cart_add"
	KeyClearCart   = "clear_cart"
	KeyOrder       = "order"
	KeyAddCategory = "add_category"
	KeyAddProduct  = "add_product"
	KeyPickCat     = "pick_cat"
)

// TokenKeys lists every callback key the controller can emit.
var TokenKeys = []string{
	KeyLang, KeyAdmin, KeyProducts, KeyCatalog, KeyAbout, KeyMainMenu,
	KeyCategory, KeyProduct, KeyAddToCart, KeyClearCart, KeyOrder,
	KeyAddCategory, KeyAddProduct, KeyPickCat,
}

// Token is a decoded callback payload: a key plus positional arguments.
type Token struct {
	Key  string
	Args []string
}

// NewToken builds a token from its key and arguments.
func NewToken(key string, args ...string) Token {
	return Token{Key: key, Args: args}
}

// ParseToken decodes "key|arg|arg". Surrounding whitespace is ignored.
func ParseToken(data string) Token {
	parts := strings.Split(strings.TrimSpace(data), tokenSep)
	return Token{Key: parts[0], Args: parts[1:]}
}

// String encodes the token for use as callback data.
func (t Token) String() string {
	if len(t.Args) == 0 {
		return t.Key
	}
	return t.Key + tokenSep + strings.Join(t.Args, tokenSep)
}

// Arg returns the i-th argument or "" when absent.
func (t Token) Arg(i int) string {
	if i < 0 || i >= len(t.Args) {
		return ""
	}
	return t.Args[i]
}
