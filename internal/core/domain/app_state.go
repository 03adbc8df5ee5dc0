package domain

// Ключи локального хранилища клиента.
const (
	StorageKeyToken         = "token"
	StorageKeyUser          = "user"
	StorageKeyTheme         = "theme"
	StorageKeyMenuCollapsed = "menuCollapsed"
)

// Темы интерфейса.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// UserClaims - пользователь, извлеченный из bearer-токена.
type UserClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// SessionSnapshot - состояние сессии клиента (пользователь, тема, меню).
type SessionSnapshot struct {
	Authenticated bool        `json:"authenticated"`
	User          *UserClaims `json:"user,omitempty"`
	Theme         string      `json:"theme"`
	MenuCollapsed bool        `json:"menuCollapsed"`
}
