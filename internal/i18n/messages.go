package i18n

// Key identifies a localized message.
type Key string

const (
	ChooseLanguage         Key = "choose_language"
	LangSelected           Key = "lang_selected"
	NotAdmin               Key = "not_admin"
	Cancelled              Key = "cancelled"
	StartHint              Key = "start_hint"
	GenericFailure         Key = "generic_failure"
	NotFound               Key = "not_found"
	MainMenu               Key = "main_menu"
	BtnCart                Key = "btn_cart"
	BtnProducts            Key = "btn_products"
	BtnAbout               Key = "btn_about"
	BtnAdminPanel          Key = "btn_admin_panel"
	BtnBack                Key = "btn_back"
	BtnMainMenu            Key = "btn_main_menu"
	Categories             Key = "categories"
	NoCategories           Key = "no_categories"
	ProductsIn             Key = "products_in"
	NoProducts             Key = "no_products"
	ProductButton          Key = "product_button"
	ProductDetail          Key = "product_detail"
	NoDescription          Key = "no_description"
	BtnAddToCart           Key = "btn_add_to_cart"
	AddedToCart            Key = "added_to_cart"
	CartTitle              Key = "cart_title"
	CartLine               Key = "cart_line"
	CartTotal              Key = "cart_total"
	CartEmpty              Key = "cart_empty"
	CartCleared            Key = "cart_cleared"
	BtnClearCart           Key = "btn_clear_cart"
	BtnOrder               Key = "btn_order"
	OrderUnavailable       Key = "order_unavailable"
	About                  Key = "about"
	AdminPanel             Key = "admin_panel"
	BtnAddCategory         Key = "btn_add_category"
	BtnAddProduct          Key = "btn_add_product"
	AddCategoryPrompt      Key = "add_category_prompt"
	CategoryAdded          Key = "category_added"
	CategoryNameEmpty      Key = "category_name_empty"
	NeedCategoryFirst      Key = "need_category_first"
	PickCategoryForProduct Key = "pick_category_for_product"
	PickCategoryFirst      Key = "pick_category_first"
	ProductFormatPrompt    Key = "product_format_prompt"
	BadProductFormat       Key = "bad_product_format"
	ProductAdded           Key = "product_added"
)

var messages = map[Lang]map[Key]string{
	Uz: {
		ChooseLanguage:   "Tilni tanlang",
		LangSelected:     "O'zbek tili tanlandi.",
		NotAdmin:         "Siz admin emassiz!",
		Cancelled:        "Amal bekor qilindi.",
		StartHint:        "Boshlash uchun /start yuboring",
		GenericFailure:   "Xatolik yuz berdi. Iltimos, keyinroq urinib ko'ring.",
		NotFound:         "Tanlangan element topilmadi.",
		MainMenu:         "Asosiy menyu:",
		BtnCart:          "🛒 Savat",
		BtnProducts:      "📦 Mahsulotlar",
		BtnAbout:         "🏪 Do'kon haqida",
		BtnAdminPanel:    "👑 Admin paneli",
		BtnBack:          "🔙 Orqaga",
		BtnMainMenu:      "🔙 Asosiy menyu",
		Categories:       "Kategoriyalar:",
		NoCategories:     "Hozircha kategoriyalar mavjud emas.",
		ProductsIn:       "%s kategoriyasidagi mahsulotlar:",
		NoProducts:       "Hozircha mahsulotlar mavjud emas.",
		ProductButton:    "%s - %s so'm",
		ProductDetail:    "🛍 Mahsulot: %s\n💵 Narxi: %s so'm\n📝 Tavsif: %s",
		NoDescription:    "Mavjud emas",
		BtnAddToCart:     "🛒 Savatga qo'shish",
		AddedToCart:      "Mahsulot savatga qo'shildi!",
		CartTitle:        "🛒 Savat:",
		CartLine:         "📦 %s - %s so'm x %d",
		CartTotal:        "Jami: %d so'm",
		CartEmpty:        "Savat bo'sh",
		CartCleared:      "Savat tozalandi!",
		BtnClearCart:     "🧹 Savatni tozalash",
		BtnOrder:         "🚖 Buyurtma berish",
		OrderUnavailable: "Buyurtma berish hozircha mavjud emas.",
		About: "🏪 Bizning do'kon haqida:\n\n" +
			"Biz eng yaxshi mahsulotlarni eng arzon narxlarda taklif qilamiz!\n" +
			"Ish vaqti: %s\n" +
			"Telefon: %s",
		AdminPanel:             "👑 Admin paneli:",
		BtnAddCategory:         "📦 Kategoriya qo'shish",
		BtnAddProduct:          "🛍 Mahsulot qo'shish",
		AddCategoryPrompt:      "Yangi kategoriya nomini yuboring:",
		CategoryAdded:          "Yangi kategoriya '%s' qo'shildi!",
		CategoryNameEmpty:      "Kategoriya nomi bo'sh bo'lmasligi kerak.",
		NeedCategoryFirst:      "Avval kategoriya qo'shishingiz kerak!",
		PickCategoryForProduct: "Mahsulot qo'shish uchun kategoriyani tanlang:",
		PickCategoryFirst:      "Avval kategoriyani tanlang.",
		ProductFormatPrompt: "Yangi mahsulot haqida ma'lumot yuboring quyidagi formatda:\n\n" +
			"Nomi\nNarxi\nTavsif (ixtiyoriy)\n\n" +
			"Misol: \n" +
			"iPhone 13\n12000000\nEng yangi iPhone modeli",
		BadProductFormat: "Noto'g'ri format! Iltimos, qayta urinib ko'ring.",
		ProductAdded:     "Yangi mahsulot '%s' qo'shildi!",
	},
	Ru: {
		ChooseLanguage:   "Выберите язык",
		LangSelected:     "Выбран русский язык.",
		NotAdmin:         "Вы не администратор!",
		Cancelled:        "Действие отменено.",
		StartHint:        "Отправьте /start, чтобы начать",
		GenericFailure:   "Произошла ошибка. Пожалуйста, попробуйте позже.",
		NotFound:         "Выбранный элемент не найден.",
		MainMenu:         "Главное меню:",
		BtnCart:          "🛒 Корзина",
		BtnProducts:      "📦 Товары",
		BtnAbout:         "🏪 О магазине",
		BtnAdminPanel:    "👑 Админ панель",
		BtnBack:          "🔙 Назад",
		BtnMainMenu:      "🔙 Главное меню",
		Categories:       "Категории:",
		NoCategories:     "Категории пока отсутствуют.",
		ProductsIn:       "Товары категории %s:",
		NoProducts:       "Товары пока отсутствуют.",
		ProductButton:    "%s - %s сум",
		ProductDetail:    "🛍 Товар: %s\n💵 Цена: %s сум\n📝 Описание: %s",
		NoDescription:    "Нет описания",
		BtnAddToCart:     "🛒 В корзину",
		AddedToCart:      "Товар добавлен в корзину!",
		CartTitle:        "🛒 Корзина:",
		CartLine:         "📦 %s - %s сум x %d",
		CartTotal:        "Итого: %d сум",
		CartEmpty:        "Корзина пуста",
		CartCleared:      "Корзина очищена!",
		BtnClearCart:     "🧹 Очистить корзину",
		BtnOrder:         "🚖 Оформить заказ",
		OrderUnavailable: "Оформление заказа пока недоступно.",
		About: "🏪 О нашем магазине:\n\n" +
			"Мы предлагаем лучшие товары по самым низким ценам!\n" +
			"Время работы: %s\n" +
			"Телефон: %s",
		AdminPanel:             "👑 Админ панель:",
		BtnAddCategory:         "📦 Добавить категорию",
		BtnAddProduct:          "🛍 Добавить товар",
		AddCategoryPrompt:      "Отправьте название новой категории:",
		CategoryAdded:          "Новая категория '%s' добавлена!",
		CategoryNameEmpty:      "Название категории не может быть пустым.",
		NeedCategoryFirst:      "Сначала нужно добавить категорию!",
		PickCategoryForProduct: "Выберите категорию для добавления товара:",
		PickCategoryFirst:      "Сначала выберите категорию.",
		ProductFormatPrompt: "Отправьте информацию о новом товаре в следующем формате:\n\n" +
			"Название\nЦена\nОписание (необязательно)\n\n" +
			"Пример: \n" +
			"iPhone 13\n12000000\nНовейшая модель iPhone",
		BadProductFormat: "Неверный формат! Пожалуйста, попробуйте еще раз.",
		ProductAdded:     "Новый товар '%s' добавлен!",
	},
}

// Keys returns every key defined for at least one language.
func Keys() []Key {
	seen := make(map[Key]struct{})
	var out []Key
	for _, table := range messages {
		for k := range table {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
