package i18n

var norwegian = map[string]string{
	"error.missing_name":           "Vennligst skriv inn navnet ditt",
	"error.missing_phone":          "Vennligst skriv inn telefonnummeret ditt",
	"error.empty_cart":             "Handlekurven er tom",
	"error.invalid_payment_method": "Ugyldig betalingsmetode",
	"error.invalid_quantity":       "Ugyldig antall",
	"error.invalid_option":         "Ugyldig valg",
	"error.invalid_scope":          "Ugyldig kategori",
	"error.invalid_body":           "Ugyldig forespørsel",
	"error.invalid_status":         "Ugyldig statusendring",
	"error.validation":             "Ugyldige data",
	"error.network":                "Nettverksfeil. Prøv igjen.",
	"error.timeout":                "Serveren svarer ikke, prøv igjen senere",
	"error.authorization":          "Du har ikke tilgang",
	"error.unauthorized":           "Du må logge inn",
	"error.conflict":               "Posten finnes allerede",
	"error.duplicate":              "Posten finnes allerede",
	"error.reference":              "Posten er koblet til andre data",
	"error.not_found":              "Fant ikke posten",
	"error.unknown":                "Noe gikk galt",
	"error.confirm_required":       "Sletting av kategorien fjerner også rettene i den. Bekreft for å fortsette.",
	"error.search_disabled":        "Søk er ikke tilgjengelig",
	"error.uploads_disabled":       "Bildeopplasting er ikke tilgjengelig",
	"error.image_too_large":        "Bildet er for stort",
	"error.image_type":             "Filtypen støttes ikke",
	"error.missing_title":          "Navn må fylles ut",
	"error.invalid_price":          "Prisen kan ikke være negativ",
	"error.negative_value":         "Verdien kan ikke være negativ",
	"error.category_cycle":         "En kategori kan ikke ligge under seg selv",
	"error.unknown_category":       "Kategorien finnes ikke",
	"error.unknown_parent":         "Overordnet kategori finnes ikke",
	"error.invalid_clear":          "Feltet kan ikke tømmes",
	"error.invalid_credentials":    "Feil brukernavn eller passord",
	"error.missing_credentials":    "Skriv inn brukernavn og passord",
	"error.item_unavailable":       "Retten er ikke tilgjengelig nå",
	"cart.added":                   "{name} lagt i handlekurven",
	"cart.removed":                 "Fjernet fra handlekurven",
	"cart.updated":                 "Handlekurven er oppdatert",
	"cart.cleared":                 "Handlekurven er tømt",
	"order.received":               "Bestillingen er mottatt!",
	"orders.pending":               "Venter",
	"orders.preparing":             "Forbereder",
	"orders.ready":                 "Klar",
	"orders.delivered":             "Levert",
	"orders.cancelled":             "Avbrutt",
	"admin.category_deleted":       "Kategorien er slettet ({items} retter fjernet)",
	"admin.saved":                  "Lagret",
	"admin.deleted":                "Slettet",
}

var english = map[string]string{
	"error.missing_name":           "Please enter your name",
	"error.missing_phone":          "Please enter your phone number",
	"error.empty_cart":             "Your cart is empty",
	"error.invalid_payment_method": "Invalid payment method",
	"error.invalid_quantity":       "Invalid quantity",
	"error.invalid_option":         "Invalid option",
	"error.invalid_scope":          "Invalid category",
	"error.invalid_body":           "Invalid request",
	"error.invalid_status":         "Invalid status change",
	"error.validation":             "Invalid data",
	"error.network":                "Network error. Please try again.",
	"error.timeout":                "Server not responding, try again later",
	"error.authorization":          "You are not allowed to do that",
	"error.unauthorized":           "Please sign in",
	"error.conflict":               "That record already exists",
	"error.duplicate":              "That record already exists",
	"error.reference":              "The record is referenced by other data",
	"error.not_found":              "Not found",
	"error.unknown":                "Something went wrong",
	"error.confirm_required":       "Deleting the category also deletes its menu items. Confirm to continue.",
	"error.search_disabled":        "Search is not available",
	"error.uploads_disabled":       "Image uploads are not available",
	"error.image_too_large":        "The image is too large",
	"error.image_type":             "Unsupported file type",
	"error.missing_title":          "Name is required",
	"error.invalid_price":          "Price cannot be negative",
	"error.negative_value":         "Value cannot be negative",
	"error.category_cycle":         "A category cannot be placed under itself",
	"error.unknown_category":       "Category does not exist",
	"error.unknown_parent":         "Parent category does not exist",
	"error.invalid_clear":          "That field cannot be cleared",
	"error.invalid_credentials":    "Invalid username or password",
	"error.missing_credentials":    "Enter username and password",
	"error.item_unavailable":       "This dish is not available right now",
	"cart.added":                   "{name} added to cart",
	"cart.removed":                 "Removed from cart",
	"cart.updated":                 "Cart updated",
	"cart.cleared":                 "Cart cleared",
	"order.received":               "Order received!",
	"orders.pending":               "Pending",
	"orders.preparing":             "Preparing",
	"orders.ready":                 "Ready",
	"orders.delivered":             "Delivered",
	"orders.cancelled":             "Cancelled",
	"admin.category_deleted":       "Category deleted ({items} menu items removed)",
	"admin.saved":                  "Saved",
	"admin.deleted":                "Deleted",
}

var turkish = map[string]string{
	"error.missing_name":           "Lütfen adınızı girin",
	"error.missing_phone":          "Lütfen telefon numaranızı girin",
	"error.empty_cart":             "Sepetiniz boş",
	"error.invalid_payment_method": "Geçersiz ödeme yöntemi",
	"error.invalid_quantity":       "Geçersiz adet",
	"error.invalid_option":         "Geçersiz seçenek",
	"error.invalid_scope":          "Geçersiz kategori",
	"error.invalid_body":           "Geçersiz istek",
	"error.invalid_status":         "Geçersiz durum değişikliği",
	"error.validation":             "Geçersiz veri",
	"error.network":                "Ağ hatası. Lütfen tekrar deneyin.",
	"error.timeout":                "Sunucu yanıt vermiyor, lütfen daha sonra tekrar deneyin",
	"error.authorization":          "Bu işlem için yetkiniz yok",
	"error.unauthorized":           "Lütfen giriş yapın",
	"error.conflict":               "Bu kayıt zaten mevcut",
	"error.duplicate":              "Bu kayıt zaten mevcut",
	"error.reference":              "Kayıt başka verilerle ilişkili",
	"error.not_found":              "Bulunamadı",
	"error.unknown":                "Bir şeyler ters gitti",
	"error.confirm_required":       "Kategoriyi silmek içindeki ürünleri de siler. Devam etmek için onaylayın.",
	"error.search_disabled":        "Arama kullanılamıyor",
	"error.uploads_disabled":       "Görsel yükleme kullanılamıyor",
	"error.image_too_large":        "Görsel çok büyük",
	"error.image_type":             "Desteklenmeyen dosya türü",
	"error.missing_title":          "İsim gerekli",
	"error.invalid_price":          "Fiyat negatif olamaz",
	"error.negative_value":         "Değer negatif olamaz",
	"error.category_cycle":         "Bir kategori kendi altına yerleştirilemez",
	"error.unknown_category":       "Kategori bulunamadı",
	"error.unknown_parent":         "Üst kategori bulunamadı",
	"error.invalid_clear":          "Bu alan temizlenemez",
	"error.invalid_credentials":    "Kullanıcı adı veya şifre hatalı",
	"error.missing_credentials":    "Kullanıcı adı ve şifre girin",
	"error.item_unavailable":       "Bu yemek şu anda mevcut değil",
	"cart.added":                   "{name} sepete eklendi",
	"cart.removed":                 "Sepetten çıkarıldı",
	"cart.updated":                 "Sepet güncellendi",
	"cart.cleared":                 "Sepet boşaltıldı",
	"order.received":               "Siparişiniz alındı!",
	"orders.pending":               "Bekliyor",
	"orders.preparing":             "Hazırlanıyor",
	"orders.ready":                 "Hazır",
	"orders.delivered":             "Teslim edildi",
	"orders.cancelled":             "İptal edildi",
	"admin.category_deleted":       "Kategori silindi ({items} ürün kaldırıldı)",
	"admin.saved":                  "Kaydedildi",
	"admin.deleted":                "Silindi",
}
