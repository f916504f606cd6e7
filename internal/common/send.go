package common

// SendFunc отправляет текстовое сообщение в чат Telegram.
// Ошибка всегда локальна для одного получателя (заблокировал бота,
// удалил аккаунт): вызывающая сторона подсчитывает её, но не прерывает
// рассылку остальным.
type SendFunc func(chatID int64, text string) error
