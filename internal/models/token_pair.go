package models

import "time"

// TokenPair — пара токенов, выдаваемая при входе и ротации.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API; сервер его не хранит;
//   - RefreshToken — долгоживущий JWT для обновления пары; на сервере хранится
//     только его односторонний хэш;
//   - RememberMe — признак «запомнить меня»: утраивает срок жизни refresh-токена
//     и меняет семантику logout (см. service.LogoutUser);
//   - AccessExpiresAt/RefreshExpiresAt — моменты истечения (UTC), по ним же
//     выставляются Max-Age соответствующих cookie.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RememberMe       bool
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
